package users

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is read only here; accounts are managed by the auth service.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string
	Email     string `gorm:"not null;uniqueIndex:idx_users_email"`
	Role      string `gorm:"type:varchar(20);not null;default:'user'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
