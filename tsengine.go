// Package tsengine serves the CalculateTimeshare site API: a public blog,
// lead capture with best-effort notifications, server-side mirrors of the
// cost calculators, and a token-gated admin surface for posts, leads and
// site settings.
package tsengine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/calculatetimeshare/tsengine/media"
	"github.com/calculatetimeshare/tsengine/notify"
)

// App wires together the store, cache, notifier, handlers and middleware.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *Store
	Cache    *PostCache
	Notifier *notify.Notifier

	loginLimiter   *RateLimiter
	leadLimiter    *RateLimiter
	passwordHash   []byte
	validator      *requestValidator
	metricsHandler echo.HandlerFunc
	mailer         notify.Mailer
	iconStorage    media.Storage
	customRoutes   []func(*App)
}

// New creates an App with the given configuration. Nothing is opened until
// Setup or Start is called.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(log.INFO)

	a := &App{
		Config: cfg,
		Echo:   e,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Setup opens the store and registers middleware and routes without
// listening. Tests drive the App through Echo.ServeHTTP after Setup.
func (a *App) Setup() error {
	if a.Config.JWTSecret == "" {
		return errors.New("tsengine: JWTSecret is required")
	}
	hash, err := a.credentialHash()
	if err != nil {
		return err
	}
	a.passwordHash = hash

	store, err := NewStore(a.Config.DatabaseURL)
	if err != nil {
		return fmt.Errorf("tsengine: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewPostCache(a.Store, a.Config.PostCacheTTL)

	a.loginLimiter = NewRateLimiter(5, time.Minute)
	a.leadLimiter = NewRateLimiter(10, time.Minute)

	if a.mailer == nil && a.Config.SMTP.Host != "" {
		smtp := a.Config.SMTP
		a.mailer = notify.NewSMTPMailer(smtp.Host, smtp.Port, smtp.User, smtp.Password, smtp.From, smtp.To)
	}
	if a.iconStorage == nil {
		if a.iconStorage, err = a.defaultIconStorage(); err != nil {
			return err
		}
	}
	a.Notifier = notify.New(notify.Config{
		Mailer:     a.mailer,
		WebhookURL: a.webhookURL,
		Logger:     a.Echo.Logger,
		Timeout:    a.Config.NotifyTimeout,
	})

	a.validator = newValidator()
	a.Echo.Validator = a.validator
	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start runs Setup and serves HTTP until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	return a.Serve()
}

// Serve listens on Config.Addr until Shutdown. Setup must have returned
// before Serve is called.
func (a *App) Serve() error {
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight notifications and
// closes the store.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	if a.Notifier != nil {
		done := make(chan struct{})
		go func() {
			a.Notifier.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			a.Echo.Logger.Warnf("shutdown: abandoning in-flight notifications: %v", ctx.Err())
		}
	}
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close releases the store and limiter goroutines.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.leadLimiter != nil {
		a.leadLimiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

func (a *App) credentialHash() ([]byte, error) {
	if h := a.Config.AdminPasswordHash; h != "" {
		if _, err := bcrypt.Cost([]byte(h)); err != nil {
			return nil, fmt.Errorf("tsengine: AdminPasswordHash is not a bcrypt hash: %w", err)
		}
		return []byte(h), nil
	}
	if a.Config.AdminPassword == "" {
		return nil, errors.New("tsengine: AdminPasswordHash or AdminPassword is required")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(a.Config.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("tsengine: hash admin password: %w", err)
	}
	return h, nil
}

func (a *App) defaultIconStorage() (media.Storage, error) {
	if cl := a.Config.Cloudinary; cl.Enabled() {
		s, err := media.NewCloudinaryStorage(cl.CloudName, cl.APIKey, cl.APISecret, "site")
		if err != nil {
			return nil, fmt.Errorf("tsengine: %w", err)
		}
		return s, nil
	}
	return media.NewLocalStorage(filepath.Join(a.Config.StaticDir, uploadsSubdir), uploadsSubdir), nil
}

// webhookURL reads the current webhook setting on every dispatch so admin
// changes apply without a restart.
func (a *App) webhookURL(ctx context.Context) (string, error) {
	s, ok, err := a.Store.GetSetting(ctx, KeyWebhookURL)
	if err != nil || !ok {
		return "", err
	}
	return s.Value, nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/"+uploadsSubdir, filepath.Join(a.Config.StaticDir, uploadsSubdir))
	e.GET("/favicon.ico", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/healthz", a.handleHealth)
	e.GET("/metrics", a.metricsHandler)
	e.GET("/site", a.handleSite)

	e.POST("/login", a.handleLogin)
	e.POST("/calculators/lifetime-cost", handleLifetimeCost)
	e.POST("/calculators/maintenance", handleMaintenance)

	e.GET("/blog", a.handleListPosts)
	e.GET("/blog/:slug", a.handleGetPost)
	e.POST("/leads", a.handleCreateLead, rateLimit(a.leadLimiter))

	admin := a.requireAdmin()
	e.POST("/blog", a.handleCreatePost, admin)
	e.PUT("/blog/:id", a.handleUpdatePost, admin)
	e.DELETE("/blog/:id", a.handleDeletePost, admin)
	e.GET("/leads", a.handleListLeads, admin)
	e.GET("/leads/:id", a.handleGetLead, admin)

	g := e.Group("/admin", admin)
	g.GET("/settings", a.handleListSettings)
	g.POST("/settings", a.handleSaveSettings)
	g.GET("/settings/:key", a.handleGetSetting)
	g.GET("/settings/seo", a.handleGetSEO)
	g.POST("/settings/seo", a.handleSaveSEO)
	g.GET("/settings/social", a.handleGetSocial)
	g.POST("/settings/social", a.handleSaveSocial)
	g.GET("/settings/webhook", a.handleGetWebhook)
	g.POST("/settings/webhook", a.handleSaveWebhook)
	g.GET("/settings/icon", a.handleGetIcon)
	g.POST("/settings/icon", a.handleUploadIcon)
}
