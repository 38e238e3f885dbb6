package container

import (
	"context"
	"fmt"
	"time"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/config"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/repository"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/repository/memstore"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/service"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/service/auth"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/service/notification"
	"github.com/tarunbommali/nxtgen-arena-sub001/internal/service/payment"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/database"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/logger"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           *database.PostgresDB
	RedisClient  *redis.Client
	Repositories *repository.Repositories
	Dispatcher   *notification.Dispatcher
	GoogleSignIn *auth.GoogleSignIn
	Services     *service.Services
}

// New creates a new dependency injection container. The notification
// dispatcher is built but not started.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: log}

	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.DB = db
		c.Repositories = repository.NewRepositories(db)
		log.Info("Postgres store initialized")
	} else {
		c.Repositories = memstore.New().Repositories()
		log.Warn("DATABASE_URL not configured, using the in-process store; data is lost on restart")
	}

	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			c.RedisClient = client
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, proceeding without caching")
	}

	var sender notification.Sender = notification.NewLogSender(log)
	if cfg.NotificationWebhookURL != "" {
		sender = notification.NewWebhookSender(cfg.NotificationWebhookURL)
	}
	c.Dispatcher = notification.NewDispatcher(sender, notification.Config{
		Workers:   cfg.NotificationWorkers,
		QueueSize: cfg.NotificationQueueSize,
	}, log)

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not configured, every authenticated request will be rejected")
	}
	gateway := payment.NewGateway(payment.Config{
		KeyID:         cfg.RazorpayKeyID,
		KeySecret:     cfg.RazorpayKeySecret,
		WebhookSecret: cfg.RazorpayWebhookSecret,
		BaseURL:       cfg.RazorpayBaseURL,
	}, log)

	repos := c.Repositories
	cache := service.NewCacheService(c.RedisClient, log, cfg.CacheEventTTL)
	tokens := auth.NewService(cfg.JWTSecret, cfg.JWTIssuer, log)
	c.GoogleSignIn = auth.NewGoogleSignIn(auth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		AdminEmails:  cfg.AdminEmails,
	}, tokens, log)
	if !c.GoogleSignIn.Enabled() {
		log.Info("Google sign-in not configured, only externally issued tokens are accepted")
	}

	c.Services = &service.Services{
		Auth:          tokens,
		Events:        service.NewEventService(repos.Events, cache, log),
		Registrations: service.NewRegistrationService(repos.Events, repos.Teams, repos.Registrations, gateway, cache, c.Dispatcher, log),
		Teams:         service.NewTeamService(repos.Events, repos.Teams, repos.Registrations, c.Dispatcher, log),
		Submissions:   service.NewSubmissionService(repos.Events, repos.Teams, repos.Registrations, repos.Submissions, cache, c.Dispatcher, log),
		Notifications: c.Dispatcher,
		Cache:         cache,
	}
	return c, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// HasDatabase reports whether the Postgres store is in use
func (c *Container) HasDatabase() bool {
	return c.DB != nil
}

// Health checks every configured backend and reports each one by name.
// Absent backends are reported as "disabled".
func (c *Container) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := map[string]string{"database": "disabled", "redis": "disabled"}
	if c.DB != nil {
		status["database"] = healthOf(c.DB.Health(ctx))
	}
	if c.RedisClient != nil {
		status["redis"] = healthOf(c.Services.Cache.HealthCheck(ctx))
	}
	return status
}

func healthOf(err error) string {
	if err != nil {
		return "unhealthy"
	}
	return "healthy"
}
