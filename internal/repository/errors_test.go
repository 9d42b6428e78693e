package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"venue-backend/internal/apperr"
)

func TestNotFound(t *testing.T) {
	err := notFound(fmt.Errorf("query: %w", gorm.ErrRecordNotFound), "booking", uint(4))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Contains(t, err.Error(), "booking 4 not found")

	other := errors.New("connection reset")
	assert.Same(t, other, notFound(other, "booking", uint(4)))
}
