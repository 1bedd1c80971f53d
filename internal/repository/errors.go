// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"strings"

	"tradehub/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// isUniqueConstraintError recognizes duplicate-key failures from Postgres and SQLite.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, pgUniqueViolation)
}

// translateReadError turns a missing row into NotFound and anything else into Internal.
func translateReadError(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// translateWriteError maps unique violations to Conflict with the given message.
func translateWriteError(err error, conflictMessage string) error {
	if err == nil {
		return nil
	}
	if isUniqueConstraintError(err) {
		return &models.AppError{Code: models.CodeConflict, Message: conflictMessage, Err: err}
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}
