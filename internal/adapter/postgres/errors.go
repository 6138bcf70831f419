package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avolkova/journal/internal/domain"
)

// MapError converts pgx/pgconn errors to domain errors.
// context.DeadlineExceeded and context.Canceled are NOT mapped — they pass through.
func MapError(err error, entity string, id int64) error {
	if err == nil {
		return nil
	}

	// context errors pass through as-is
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %d: %w", entity, id, err)
	}

	// pgx.ErrNoRows → domain.ErrNotFound
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", entity, id, domain.ErrNotFound)
	}

	// PgError codes
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505": // unique_violation
			return fmt.Errorf("%s %d: %w", entity, id, domain.ErrAlreadyExists)
		case pgErr.Code == "23503": // foreign_key_violation
			return fmt.Errorf("%s %d: %w", entity, id, domain.ErrNotFound)
		case pgErr.Code == "23514": // check_violation
			return fmt.Errorf("%s %d: %w", entity, id, domain.ErrValidation)
		case strings.HasPrefix(pgErr.Code, "08"): // connection_exception
			return fmt.Errorf("%s %d: %w: %v", entity, id, domain.ErrStoreUnavailable, err)
		case strings.HasPrefix(pgErr.Code, "57"): // operator_intervention (shutdown etc.)
			return fmt.Errorf("%s %d: %w: %v", entity, id, domain.ErrStoreUnavailable, err)
		case pgErr.Code == "42P01": // undefined_table: migrations not applied
			return fmt.Errorf("%s %d: %w: %v", entity, id, domain.ErrStoreUnavailable, err)
		}
	}

	// Network-level failures: database unreachable.
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%s %d: %w: %v", entity, id, domain.ErrStoreUnavailable, err)
	}

	// Everything else: wrap with context
	return fmt.Errorf("%s %d: %w", entity, id, err)
}
