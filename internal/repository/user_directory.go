package repository

import (
	"context"

	"gorm.io/gorm"

	"venue-backend/internal/domain/users"
)

type UserDirectory struct{ db *gorm.DB }

func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (d *UserDirectory) EmailForUser(ctx context.Context, userID uint) (string, error) {
	var u users.User
	if err := d.db.WithContext(ctx).Select("id", "email").First(&u, userID).Error; err != nil {
		return "", notFound(err, "user", userID)
	}
	return u.Email, nil
}
