package repository

import (
	"errors"

	"gorm.io/gorm"

	"venue-backend/internal/apperr"
)

// notFound turns gorm's missing-row error into an application error and
// passes anything else through.
func notFound(err error, what string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("%s %v not found", what, id)
	}
	return err
}
