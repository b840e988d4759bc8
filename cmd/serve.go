package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/spf13/cobra"

	"healthadmin-backend/audit"
	"healthadmin-backend/controllers"
	"healthadmin-backend/database"
	"healthadmin-backend/logger"
	"healthadmin-backend/middlewares"
	"healthadmin-backend/routes"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Connects to Postgres, migrates the public and tenant schemas and serves the API.

Audit events go to the sink named by AUDIT_SINK (db, kafka, amqp or log).`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	// serve is the default command.
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServe(serveCmd, args)
	}

	serveCmd.Flags().Bool("skip-migrate", false, "Do not migrate schemas on startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")
	skipMigrate, _ := cmd.Flags().GetBool("skip-migrate")

	// ---- Database (public)
	if err := database.Connect(cfg); err != nil {
		return err
	}
	db := database.DB
	if !skipMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
		if err := database.MigrateAllTenants(db); err != nil {
			return err
		}
	}

	// ---- Audit sink
	sink, err := audit.New(cfg, db)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Warn().Err(err).Msg("audit sink close failed")
		}
	}()

	auth, err := middlewares.NewAuth(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    cfg.BodyLimitBytes,
	})

	app.Use(requestid.New())

	// ---- CORS
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
	}))

	// ---- Global rate limiter (applies to all routes; tune via env)
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
	}))

	// ---- Routes
	routes.Register(app, controllers.New(db, auth, sink), auth.IsAuthenticatedHeader(), db)

	// ---- Start, stop on SIGINT/SIGTERM
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + cfg.Port)
	}()
	log.Info().Str("port", cfg.Port).Str("audit_sink", cfg.AuditSink).Msg("API server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return app.ShutdownWithContext(ctx)
}
