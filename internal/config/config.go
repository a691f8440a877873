package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Config holds all process-wide settings. It is loaded once at startup and
// treated as read-only afterwards; components receive it via constructors.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	JWTSecret        string `envconfig:"JWT_SECRET" required:"true"`
	ResetTokenTTLMin int    `envconfig:"RESET_TOKEN_TTL_MIN" default:"15"`

	S3URL       string `envconfig:"S3_URL" required:"true"`
	S3Bucket    string `envconfig:"S3_BUCKET" required:"true"`
	S3Region    string `envconfig:"S3_REGION" required:"true"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" required:"true"`

	RazorpayKeyID     string `envconfig:"RAZORPAY_KEY_ID" required:"true"`
	RazorpayKeySecret string `envconfig:"RAZORPAY_KEY_SECRET" required:"true"`
	RazorpayPlanID    string `envconfig:"RAZORPAY_PLAN_ID"`

	SMTPHost     string `envconfig:"SMTP_HOST" required:"true"`
	SMTPPort     string `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser     string `envconfig:"SMTP_USER" required:"true"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD" required:"true"`
	EmailFrom    string `envconfig:"EMAIL_FROM" required:"true"`

	FrontendURL string `envconfig:"FRONTEND_URL" required:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
