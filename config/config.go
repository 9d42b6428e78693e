package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port       string `envconfig:"PORT" default:"8080"`
	DBURL      string `envconfig:"DB_URL" required:"true"`
	JWTSecret  string `envconfig:"JWT_SECRET" required:"true"`
	CORSOrigin string `envconfig:"CORS_ORIGIN" default:"http://localhost:5173"`
	AppURL     string `envconfig:"APP_URL" default:"http://localhost:5173"`
	AppEnv     string `envconfig:"APP_ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`

	// Include internal error text in JSON error bodies. Keep off in production.
	ExposeErrorDetails bool `envconfig:"EXPOSE_ERROR_DETAILS" default:"false"`

	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET" required:"true"`
	Currency            string `envconfig:"CURRENCY" default:"eur"`
	PlatformFeePercent  int64  `envconfig:"PLATFORM_FEE_PERCENT" default:"10"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	KafkaBrokers       []string `envconfig:"KAFKA_BROKERS"`
	NotificationsTopic string   `envconfig:"NOTIFICATIONS_TOPIC" default:"venue.notifications"`
	KafkaGroupID       string   `envconfig:"KAFKA_GROUP_ID" default:"venue-notifier"`

	AdminEmail   string `envconfig:"ADMIN_EMAIL"`
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     string `envconfig:"SMTP_PORT" default:"587"`
	SMTPFrom     string `envconfig:"SMTP_FROM"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
