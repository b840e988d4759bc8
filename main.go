package main

import (
	"log"

	"healthadmin-backend/cmd"
	"healthadmin-backend/logger"
)

func main() {
	// Console logging until the command has loaded its configuration.
	if err := logger.Setup(logger.DefaultConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	cmd.Execute()
}
