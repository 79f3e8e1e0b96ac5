package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/obrador-api/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isConcurrencyFailure serialization_failure (40001) o deadlock_detected (40P01).
func isConcurrencyFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// isInvalidText invalid_text_representation (22P02), p. ej. un id que no es UUID.
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

// mapTxError traduce fallos de concurrencia de PostgreSQL a domain.ErrTransactionConflict.
func mapTxError(err error) error {
	if err == nil {
		return nil
	}
	if isConcurrencyFailure(err) {
		return fmt.Errorf("%w: %v", domain.ErrTransactionConflict, err)
	}
	return err
}
