package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultCodeAttempts bounds the generate-check-retry loop.
const DefaultCodeAttempts = 100

// ErrExhaustedRetries is returned when no unused code was found.
var ErrExhaustedRetries = errors.New("exhausted retries generating unique code")

// ExhaustedRetriesError reports how many candidates were tried.
type ExhaustedRetriesError struct {
	Attempts int
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("no unique code after %d attempts", e.Attempts)
}

func (e *ExhaustedRetriesError) Unwrap() error {
	return ErrExhaustedRetries
}

// GenerateUnique draws candidates from generate until exists reports one as unused.
func GenerateUnique(ctx context.Context, generate func() string, exists func(context.Context, string) (bool, error), attempts int) (string, error) {
	if attempts <= 0 {
		attempts = DefaultCodeAttempts
	}
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := generate()
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", &ExhaustedRetriesError{Attempts: attempts}
}

// DatedCode returns PREFIX-YYYYMMDD-XXXXXX with a random uppercase hex suffix.
func DatedCode(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s", prefix, now.UTC().Format("20060102"), suffix)
}
