package postgres

import (
	"errors"

	"github.com/andressep95/gameplan-api/internal/repository"
	"github.com/lib/pq"
)

// SQLSTATE codes the API reports as client errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeInvalidTextRepr     = "22P02"
)

// mapError turns integrity failures reported by Postgres into
// *repository.ConstraintError. Other errors pass through untouched.
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	var kind repository.ConstraintKind
	switch pqErr.Code {
	case codeUniqueViolation:
		kind = repository.UniqueViolation
	case codeForeignKeyViolation:
		kind = repository.ForeignKeyViolation
	case codeNotNullViolation:
		kind = repository.NotNullViolation
	case codeInvalidTextRepr:
		kind = repository.InvalidTextRepresentation
	default:
		return err
	}

	return &repository.ConstraintError{
		Kind:       kind,
		Table:      pqErr.Table,
		Constraint: pqErr.Constraint,
		Column:     pqErr.Column,
		Err:        err,
	}
}
