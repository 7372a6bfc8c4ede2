package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"papermill_reel_tracker/reel"
)

// Postgres error codes the service cares to name.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	codeSerialization       = "40001"
	codeDeadlock            = "40P01"
)

// PgError keeps the postgres code next to the message so store failures
// surfaced to operators say what the database objected to.
type PgError struct {
	Code    string
	Message string
	Detail  string
}

func (e *PgError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("postgres %s (%s): %s: %s", e.Code, e.Kind(), e.Message, e.Detail)
	}
	return fmt.Sprintf("postgres %s (%s): %s", e.Code, e.Kind(), e.Message)
}

func (e *PgError) Kind() string {
	switch e.Code {
	case codeUniqueViolation:
		return "unique violation"
	case codeForeignKeyViolation:
		return "foreign key violation"
	case codeNotNullViolation:
		return "not null violation"
	case codeCheckViolation:
		return "check violation"
	case codeSerialization:
		return "serialization failure"
	case codeDeadlock:
		return "deadlock"
	}
	return "error"
}

// mapErr turns a missing row into reel.ErrNotFound and a postgres error
// into *PgError. Anything else passes through.
func mapErr(kind, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", kind, id, reel.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &PgError{Code: pgErr.Code, Message: pgErr.Message, Detail: pgErr.Detail}
	}
	return err
}
