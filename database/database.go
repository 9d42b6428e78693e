package database

import (
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"venue-backend/internal/domain/billing"
	"venue-backend/internal/domain/booking"
	"venue-backend/internal/domain/giftcards"
	"venue-backend/internal/domain/orders"
	"venue-backend/internal/domain/registrations"
	"venue-backend/internal/domain/users"
)

// Open connects to Postgres. SQL logging follows the process log level.
func Open(dsn string, log *logrus.Logger) (*gorm.DB, error) {
	level := gormlogger.Warn
	if log.IsLevelEnabled(logrus.DebugLevel) {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(log, gormlogger.Config{LogLevel: level, IgnoreRecordNotFoundError: true}),
	})
	if err != nil {
		return nil, err
	}
	log.Info("connected to database")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// core
		&users.User{},
		&billing.Payment{},
		&billing.WebhookEvent{},

		// bookings
		&booking.Session{},
		&booking.Booking{},

		// shop
		&orders.Product{},
		&orders.ShippingAddress{},
		&orders.Order{},
		&orders.OrderItem{},
		&orders.CartItem{},

		// registrations
		&registrations.Tournament{},
		&registrations.Event{},
		&registrations.TournamentRegistration{},
		&registrations.EventRegistration{},

		// gift cards
		&giftcards.GiftCard{},
		&giftcards.UserGiftCard{},
	)
}
