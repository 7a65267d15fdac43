package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/claudel/offrebot/internal/bot"
	"github.com/claudel/offrebot/internal/catalog"
	"github.com/claudel/offrebot/internal/config"
	"github.com/claudel/offrebot/internal/httpserver"
	"github.com/claudel/offrebot/internal/httpserver/deps"
	"github.com/claudel/offrebot/internal/logger"
	"github.com/claudel/offrebot/internal/redis"
	"github.com/claudel/offrebot/internal/scheduler"
	"github.com/claudel/offrebot/internal/session"
	"github.com/claudel/offrebot/internal/signature"
	"github.com/claudel/offrebot/internal/store/mongo"
	"github.com/claudel/offrebot/internal/version"
	"github.com/claudel/offrebot/internal/wa"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	db          *mongo.DB
	redisClient *goredis.Client
	notifier    *scheduler.Notifier
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Mongo early - fail fast if unavailable
	loggerClient.Infof("Connecting to Mongo (database %s)", cfg.MongoDB)
	db, err := mongo.Connect(context.Background(), cfg.MongoURI, cfg.MongoDB, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Mongo: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Mongo initialized successfully")

	postings := db.Postings()
	favorites := db.Favorites()

	// Session store: in-memory by default, redis when configured
	var sessions session.Store
	var redisClient *goredis.Client
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		redisClient, err = redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDialTimeout,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		sessions = session.NewRedisStore(redisClient, cfg.SessionTTL)
		loggerClient.Info("Redis session store initialized")
	default:
		sessions = session.NewMemoryStore()
	}

	// Category catalog: built-in list unless a yaml override is set
	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		cat, err = catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			loggerClient.Errorf("Failed to load catalog file %s: %v", cfg.CatalogFile, err)
			os.Exit(1)
		}
		loggerClient.Info("catalog loaded from file",
			logger.String("file", cfg.CatalogFile),
			logger.Int("categories", cat.Len()),
		)
	}

	sender := wa.NewClient(cfg.GraphBaseURL, cfg.WAPhoneID, cfg.WAAccessToken, cfg.SendTimeout, loggerClient)

	engine := bot.NewEngine(postings, favorites, sessions, sender, cat, loggerClient)

	notifier := scheduler.NewNotifier(
		postings,
		favorites,
		sender,
		loggerClient,
		cfg.NotifyInterval,
		cfg.NotifyBackoff,
		cfg.SendDelay,
	)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:      loggerClient,
		StartTime:   time.Now(),
		Version:     version.Version,
		Commit:      version.Commit,
		BuildDate:   version.BuildDate,
		GoVersion:   version.GoVersion,
		TimeNow:     time.Now,
		VerifyToken: cfg.VerifyToken,
		Verifier:    signature.NewVerifier(cfg.AppSecret),
		Engine:      engine,
		DB:          db,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		db:          db,
		redisClient: redisClient,
		notifier:    notifier,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Offrebot v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Offrebot %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start notification dispatcher
	if err := a.notifier.Start(ctx); err != nil {
		return fmt.Errorf("failed to start notifier: %w", err)
	}
	a.logger.Info("notification dispatcher started",
		logger.Duration("interval", a.cfg.NotifyInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	// Stop dispatcher before the server so no cycle races shutdown
	a.notifier.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if err := a.db.Close(shutdownCtx); err != nil {
		a.logger.Warnf("failed to close mongo: %v", err)
	} else {
		a.logger.Info("✅ Mongo closed cleanly")
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Offrebot stopped cleanly")
	return nil
}
