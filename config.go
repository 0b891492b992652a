package tsengine

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/calculatetimeshare/tsengine/media"
	"github.com/calculatetimeshare/tsengine/notify"
)

// SiteConfig holds all configuration for the site.
type SiteConfig struct {
	Name        string // Site name (default "CalculateTimeshare")
	URL         string // Canonical URL used in sitemap, robots and feed (default "http://localhost:3000")
	Description string // Site description for the RSS channel

	Addr        string   // Listen address (default ":3000")
	DatabaseURL string   // SQLite path or postgres:// URL (default "data/site.db")
	StaticDir   string   // Directory for locally stored uploads (default "public")
	CORSOrigins []string // Allowed browser origins for the JSON API (default "*")

	AdminUsername     string        // Operator login name (default "admin")
	AdminPasswordHash string        // bcrypt hash of the operator password
	AdminPassword     string        // Plain password, hashed at startup when no hash is given
	JWTSecret         string        // Required: HMAC key for admin tokens
	TokenTTL          time.Duration // Admin token lifetime (default 1h)

	PostCacheTTL  time.Duration // Blog listing cache TTL (default 5min)
	NotifyTimeout time.Duration // Per-attempt bound for email and webhook (default 10s)

	SMTP       SMTPConfig
	Cloudinary CloudinaryConfig
}

// SMTPConfig configures lead notification email. Email is disabled when Host is empty.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string
}

// CloudinaryConfig enables remote icon storage when all three fields are set.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// Enabled reports whether Cloudinary credentials are complete.
func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "CalculateTimeshare"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = "data/site.db"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
	if c.AdminUsername == "" {
		c.AdminUsername = "admin"
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = time.Hour
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.NotifyTimeout == 0 {
		c.NotifyTimeout = 10 * time.Second
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.To == "" {
		c.SMTP.To = c.SMTP.From
	}
}

// ConfigFromEnv builds a SiteConfig from environment variables. Unset
// values are left empty and filled by defaults when the App is created.
func ConfigFromEnv() SiteConfig {
	return SiteConfig{
		Name:              os.Getenv("SITE_NAME"),
		URL:               os.Getenv("SITE_URL"),
		Description:       os.Getenv("SITE_DESCRIPTION"),
		Addr:              os.Getenv("ADDR"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		StaticDir:         os.Getenv("STATIC_DIR"),
		CORSOrigins:       splitList(os.Getenv("CORS_ORIGINS")),
		AdminUsername:     os.Getenv("ADMIN_USERNAME"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		TokenTTL:          envDuration("TOKEN_TTL"),
		PostCacheTTL:      envDuration("POST_CACHE_TTL"),
		NotifyTimeout:     envDuration("NOTIFY_TIMEOUT"),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT"),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("MAIL_FROM"),
			To:       os.Getenv("MAIL_TO"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithMailer replaces the SMTP mailer built from SiteConfig.SMTP.
func WithMailer(m notify.Mailer) Option {
	return func(a *App) {
		a.mailer = m
	}
}

// WithIconStorage replaces the icon storage chosen from SiteConfig.
func WithIconStorage(s media.Storage) Option {
	return func(a *App) {
		a.iconStorage = s
	}
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return 0
	}
	return d
}

func envInt(key string) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
