package authcore

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		JWTSecret:   "secret",
		FrontendURL: "https://app.example.com",
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"minimal valid", func(c *Config) {}, ""},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, "AUTHCORE_JWT_SECRET"},
		{"missing frontend url", func(c *Config) { c.FrontendURL = "" }, "AUTHCORE_FRONTEND_URL"},
		{"google id without secret", func(c *Config) { c.GoogleClientID = "id" }, "set together"},
		{"google secret without id", func(c *Config) { c.GoogleClientSecret = "sec" }, "set together"},
		{"google without callback", func(c *Config) {
			c.GoogleClientID = "id"
			c.GoogleClientSecret = "sec"
		}, "AUTHCORE_GOOGLE_CALLBACK_URL"},
		{"google fully configured", func(c *Config) {
			c.GoogleClientID = "id"
			c.GoogleClientSecret = "sec"
			c.GoogleCallbackURL = "https://api.example.com/google/callback"
		}, ""},
		{"smtp without from", func(c *Config) { c.SMTPAddr = "smtp.example.com:587" }, "AUTHCORE_SMTP_FROM"},
		{"smtp fully configured", func(c *Config) {
			c.SMTPAddr = "smtp.example.com:587"
			c.SMTPFrom = "noreply@example.com"
		}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("AUTHCORE_JWT_SECRET", "env-secret")
	t.Setenv("AUTHCORE_FRONTEND_URL", "https://app.example.com")
	t.Setenv("AUTHCORE_ENV", "production")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}
	if cfg.JWTSecret != "env-secret" {
		t.Errorf("JWTSecret = %q", cfg.JWTSecret)
	}
	if !cfg.Production {
		t.Error("AUTHCORE_ENV=production should set Production")
	}
	if cfg.GoogleEnabled() {
		t.Error("google should be disabled without credentials")
	}
}

func TestConfigFromEnvRejectsIncomplete(t *testing.T) {
	t.Setenv("AUTHCORE_JWT_SECRET", "")
	t.Setenv("AUTHCORE_FRONTEND_URL", "https://app.example.com")

	if _, err := ConfigFromEnv(); err == nil {
		t.Error("missing secret should fail")
	}
}
