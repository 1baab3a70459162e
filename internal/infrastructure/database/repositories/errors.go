package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/errors"
)

// pgUniqueViolation is the SQLSTATE for unique_violation
const pgUniqueViolation = "23505"

// isUniqueViolation recognizes duplicates from gorm's translated error or a raw pgconn
// error when translation is off.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// translate maps driver errors onto AppErrors
func translate(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.RecordNotFound(resource)
	case isUniqueViolation(err):
		return apperrors.DuplicateRecord(resource, err)
	default:
		return apperrors.DatabaseError(err)
	}
}
