package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvDevelopment is the APP_ENV value that relaxes cookie and secret checks.
const EnvDevelopment = "development"

// Config holds application level configuration loaded from environment variables.
type Config struct {
	AppEnv         string   `env:"APP_ENV" envDefault:"development"`
	ServerPort     string   `env:"SERVER_PORT" envDefault:"8000"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	SwaggerHost    string   `env:"SWAGGER_HOST"`

	DBDialect string `env:"DB_DIALECT" envDefault:"mysql"`
	DBDSN     string `env:"DB_DSN" envDefault:"user:password@tcp(localhost:3306)/storefront?charset=utf8mb4&parseTime=True&loc=UTC"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`
	RedisPass string `env:"REDIS_PASSWORD"`

	JWTAccessSecret  string        `env:"JWT_ACCESS_SECRET" envDefault:"change-me-access"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET" envDefault:"change-me-refresh"`
	JWTAccessTTL     time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
	JWTRefreshTTL    time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`

	OTPLength   int           `env:"OTP_LENGTH" envDefault:"4"`
	OTPTTL      time.Duration `env:"OTP_TTL" envDefault:"2m"`
	OTPHashCost int           `env:"OTP_HASH_COST" envDefault:"12"`

	TwilioAccountSID  string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken   string `env:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber string `env:"TWILIO_PHONE_NUMBER"`

	SMTPHost     string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"465"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	AdminPhoneNumber string `env:"ADMIN_PHONE_NUMBER"`
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// SMSEnabled reports whether Twilio credentials are present.
func (c *Config) SMSEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioPhoneNumber != ""
}

// EmailEnabled reports whether SMTP credentials are present.
func (c *Config) EmailEnabled() bool {
	return c.SMTPUsername != "" && c.SMTPPassword != ""
}

// Load reads an optional .env file, then builds Config from the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects incomplete or unsafe configurations.
func (c *Config) Validate() error {
	if c.JWTAccessSecret == "" || c.JWTRefreshSecret == "" {
		return errors.New("config: JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required")
	}
	if c.JWTAccessSecret == c.JWTRefreshSecret {
		return errors.New("config: access and refresh secrets must differ")
	}
	if c.JWTAccessTTL <= 0 || c.JWTRefreshTTL <= 0 || c.OTPTTL <= 0 {
		return errors.New("config: token and otp lifetimes must be positive")
	}
	switch c.DBDialect {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported DB_DIALECT %q", c.DBDialect)
	}
	if !c.IsDevelopment() && (c.JWTAccessSecret == "change-me-access" || c.JWTRefreshSecret == "change-me-refresh") {
		return errors.New("config: default JWT secrets are only allowed in development")
	}
	if !c.IsDevelopment() && !explicitOrigins(c.AllowedOrigins) {
		return errors.New("config: ALLOWED_ORIGINS must list explicit origins outside development")
	}
	return nil
}

// explicitOrigins reports whether origins names at least one origin and no
// wildcard. Credentialed CORS with an empty list falls back to "*".
func explicitOrigins(origins []string) bool {
	if len(origins) == 0 {
		return false
	}
	for _, o := range origins {
		if o == "*" {
			return false
		}
	}
	return true
}
