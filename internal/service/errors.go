package service

import (
	"fmt"
	"log/slog"

	"github.com/sakif/college-tracker/internal/apperror"
)

// unexpected logs an infrastructure failure and wraps it. The wrapped error
// carries no sentinel, so the handler answers 500 without the detail.
func unexpected(logger *slog.Logger, op string, err error, args ...any) error {
	logger.Error(op+" failed", append(args, slog.String("error", err.Error()))...)
	return fmt.Errorf("%s: %w", op, err)
}

// passThrough returns domain errors unchanged and treats the rest as unexpected.
func passThrough(logger *slog.Logger, op string, err error, args ...any) error {
	if apperror.Known(err) {
		return err
	}
	return unexpected(logger, op, err, args...)
}
