package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/marks/internal/actions"
	"github.com/MrSnakeDoc/marks/internal/auth"
	"github.com/MrSnakeDoc/marks/internal/config"
	"github.com/MrSnakeDoc/marks/internal/dataservice"
	"github.com/MrSnakeDoc/marks/internal/feed"
	"github.com/MrSnakeDoc/marks/internal/httpserver"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/redis"
	"github.com/MrSnakeDoc/marks/internal/scheduler"
	"github.com/MrSnakeDoc/marks/internal/sources/homepage"
	redisstore "github.com/MrSnakeDoc/marks/internal/store/redis"
	sqlstore "github.com/MrSnakeDoc/marks/internal/store/sql"
	"github.com/MrSnakeDoc/marks/internal/utils"
	"github.com/MrSnakeDoc/marks/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	db          *sqlstore.Store
	importer    *scheduler.Importer // nil when import is disabled
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisOpts := redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}
	redisClient, err := redis.Dial(context.Background(), redisOpts, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	dbPolicy := redisOpts.RetryPolicy()
	dbPolicy.Total = cfg.DatabaseWait
	db, err := sqlstore.OpenWithRetry(context.Background(), cfg.DatabaseURL, dbPolicy, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open database: %v", err)
		utils.Close(redisClient)
		os.Exit(1)
	}
	loggerClient.Info("database ready", logger.String("driver", db.Driver()))

	store := redisstore.NewStore(redisClient, cfg.PageCacheTTL)

	var changes feed.Feed
	switch cfg.FeedBackend {
	case "memory":
		changes = feed.NewMemory(cfg.FeedBufferSize, loggerClient)
	default:
		changes = redisstore.NewFeed(redisClient, cfg.FeedBufferSize, loggerClient)
	}
	loggerClient.Info("change feed ready", logger.String("backend", cfg.FeedBackend))

	var google *auth.Google
	if cfg.GoogleEnabled() {
		google = auth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		loggerClient.Info("google sign-in enabled")
	}

	data := dataservice.New(dataservice.Deps{
		Repo:     db,
		Sessions: store,
		Feed:     changes,
		Pages:    store,
		Tokens:   auth.NewTokens(cfg.JWTSecret, cfg.SessionTTL),
		Google:   google,
		Logger:   loggerClient.With(logger.String("component", "data")),
	})

	// Initialize the Homepage importer (if import files are configured)
	var importer *scheduler.Importer
	var importTrigger chan struct{}
	var importStatus deps.ImportStatus
	if cfg.ImportEnabled() {
		loggerClient.Info("import configured, initializing importer",
			logger.String("owner", cfg.ImportOwner),
			logger.Int("files", len(cfg.ImportFiles)))
		importTrigger = make(chan struct{}, 1)
		importer = scheduler.NewImporter(
			homepage.NewLoader(cfg.ImportFiles...),
			data,
			cfg.ImportOwner,
			loggerClient.With(logger.String("component", "import")),
			cfg.ImportInterval,
			importTrigger,
		)
		importStatus = importer
	} else {
		loggerClient.Info("import file not configured, homepage import disabled")
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:           loggerClient,
		StartTime:        time.Now(),
		Version:          version.Version,
		Commit:           version.Commit,
		BuildDate:        version.BuildDate,
		GoVersion:        version.GoVersion,
		TimeNow:          time.Now,
		AllowedHosts:     cfg.AllowedHosts,
		AllowedCIDRS:     cfg.AllowedCIDRS,
		TrustProxy:       cfg.TrustProxy,
		SecureCookies:    cfg.SecureCookies,
		AuthRateBurst:    cfg.AuthRateBurst,
		AuthRatePerMn:    cfg.AuthRatePerMn,
		APIRateBurst:     cfg.APIRateBurst,
		APIRatePerMn:     cfg.APIRatePerMn,
		FeedBackend:      cfg.FeedBackend,
		RedisClient:      redisClient,
		Data:             data,
		Actions:          actions.New(store, loggerClient.With(logger.String("component", "actions"))),
		Pages:            store,
		LiveViews:        new(atomic.Int64),
		LiveSessionCheck: cfg.LiveCheck,
		ImportTrigger:    importTrigger,
		Import:           importStatus,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		db:          db,
		importer:    importer,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting marks v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start importer (if enabled)
	if a.importer != nil {
		a.importer.Start(ctx)
		a.logger.Info("importer started",
			logger.Duration("interval", a.cfg.ImportInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	if a.importer != nil {
		a.importer.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	utils.CloseLogged(a.db, "database", a.logger)
	utils.CloseLogged(a.redisClient, "Redis", a.logger)

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ marks stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
