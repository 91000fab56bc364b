package authcore

import (
	"fmt"
	"os"
)

// Config is the full process configuration. Validation happens once at
// startup; a half-configured process never serves requests.
type Config struct {
	// JWTSecret signs session tokens. Required.
	JWTSecret string

	// FrontendURL is the browser destination after server-side OAuth
	// callbacks. Required.
	FrontendURL string

	// Production hardens cookies for cross-site deployments.
	Production bool

	// Google OAuth client. Both ID and secret must be set together; when
	// absent the redirect endpoints stay unmounted.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	// DatabaseDSN selects the postgres store; empty means the filesystem
	// store.
	DatabaseDSN string
	StoreDir    string

	// SMTP relay for reset-code mail; empty Addr means console delivery.
	SMTPAddr     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	// S3 avatar storage; empty bucket disables avatar imports and uploads.
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3PublicBaseURL string
}

// ConfigFromEnv loads configuration from AUTHCORE_* environment variables
// and validates it.
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{
		JWTSecret:          os.Getenv("AUTHCORE_JWT_SECRET"),
		FrontendURL:        os.Getenv("AUTHCORE_FRONTEND_URL"),
		Production:         os.Getenv("AUTHCORE_ENV") == "production",
		GoogleClientID:     os.Getenv("AUTHCORE_GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("AUTHCORE_GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  os.Getenv("AUTHCORE_GOOGLE_CALLBACK_URL"),
		DatabaseDSN:        os.Getenv("AUTHCORE_DATABASE_DSN"),
		StoreDir:           os.Getenv("AUTHCORE_STORE_DIR"),
		SMTPAddr:           os.Getenv("AUTHCORE_SMTP_ADDR"),
		SMTPFrom:           os.Getenv("AUTHCORE_SMTP_FROM"),
		SMTPUsername:       os.Getenv("AUTHCORE_SMTP_USERNAME"),
		SMTPPassword:       os.Getenv("AUTHCORE_SMTP_PASSWORD"),
		S3Bucket:           os.Getenv("AUTHCORE_S3_BUCKET"),
		S3Region:           os.Getenv("AUTHCORE_S3_REGION"),
		S3Endpoint:         os.Getenv("AUTHCORE_S3_ENDPOINT"),
		S3PublicBaseURL:    os.Getenv("AUTHCORE_S3_PUBLIC_BASE_URL"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first configuration error, if any.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("AUTHCORE_JWT_SECRET is required")
	}
	if c.FrontendURL == "" {
		return fmt.Errorf("AUTHCORE_FRONTEND_URL is required")
	}
	if (c.GoogleClientID == "") != (c.GoogleClientSecret == "") {
		return fmt.Errorf("google client id and secret must be set together")
	}
	if c.GoogleClientID != "" && c.GoogleCallbackURL == "" {
		return fmt.Errorf("AUTHCORE_GOOGLE_CALLBACK_URL is required when google login is enabled")
	}
	if c.SMTPAddr != "" && c.SMTPFrom == "" {
		return fmt.Errorf("AUTHCORE_SMTP_FROM is required when an SMTP relay is configured")
	}
	return nil
}

// GoogleEnabled reports whether the server-side Google redirect flow is
// configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
