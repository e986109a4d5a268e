// Package pgerr maps PostgreSQL driver errors onto the project's error kinds.
package pgerr

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/vistoria/internal/common"
)

// SQLSTATE codes we distinguish.
const (
	ForeignKeyViolation   = "23503"
	CheckViolation        = "23514"
	UniqueViolation       = "23505"
	InvalidTextRepr       = "22P02"
	InvalidDatetimeFormat = "22007"
	DatetimeFieldOverflow = "22008"
	SerializationFailure  = "40001"
)

// Translate wraps err with op and the matching sentinel from internal/common.
// The original error stays in the chain. A nil err returns nil.
func Translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case ForeignKeyViolation:
			return fmt.Errorf("%s: %w: %w", op, common.ErrReferenceNotFound, err)
		case CheckViolation, InvalidTextRepr, InvalidDatetimeFormat, DatetimeFieldOverflow:
			return fmt.Errorf("%s: %w: %w", op, common.ErrValidation, err)
		}
	}

	return fmt.Errorf("%s: %w: %w", op, common.ErrStoreUnavailable, err)
}
