// Command notifier drains the notifications topic and delivers each message
// by mail.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"venue-backend/config"
	"venue-backend/database"
	"venue-backend/internal/infra/notify"
	"venue-backend/internal/logging"
	"venue-backend/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.AppEnv)

	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("KAFKA_BROKERS is required for the notifier")
	}
	if cfg.SMTPHost == "" {
		log.Fatal("SMTP_HOST is required for the notifier")
	}

	db, err := database.Open(cfg.DBURL, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := notify.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.NotificationsTopic)
	defer consumer.Close()

	deliverer := notify.NewDeliverer(
		notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPPassword),
		repository.NewUserDirectory(db),
		cfg.AdminEmail,
		log,
	)

	log.WithFields(logrus.Fields{
		"topic": cfg.NotificationsTopic,
		"group": cfg.KafkaGroupID,
	}).Info("notifier started")

	if err := consumer.Consume(ctx, deliverer.Handle); err != nil {
		log.WithError(err).Fatal("consumer stopped")
	}
	log.Info("notifier stopped")
}
