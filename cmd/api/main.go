package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telecom-bridge/internal/audit"
	"telecom-bridge/internal/auth"
	"telecom-bridge/internal/callevents"
	"telecom-bridge/internal/calls"
	"telecom-bridge/internal/config"
	"telecom-bridge/internal/directory"
	"telecom-bridge/internal/dispatch"
	"telecom-bridge/internal/events"
	"telecom-bridge/internal/httpapi"
	"telecom-bridge/internal/migrate"
	"telecom-bridge/internal/reporting"
	"telecom-bridge/internal/routing"
	"telecom-bridge/internal/telephony"
	"telecom-bridge/internal/transfer"
	"telecom-bridge/pkg/logger"
	"telecom-bridge/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/cors"
	_ "modernc.org/sqlite"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	pool := utils.PoolConfig{}
	if cfg.DB.Driver == config.DriverSQLite {
		// One writer; SQLite serializes anyway.
		pool.MaxOpenConns = 1
	}
	db, err := utils.OpenDB(rootCtx, cfg.DB.Driver, cfg.DSN(), pool)
	if err != nil {
		log.Error("database init failed", "driver", cfg.DB.Driver, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if _, err := migrate.Up(rootCtx, db, log); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	hub := events.NewHub(log)
	go hub.Run(rootCtx)

	// Without Redis the hub is the bus. With Redis every replica publishes
	// there and relays back into its own hub.
	var bus events.Bus = hub
	var guard transfer.Guard = transfer.NewLocalGuard()
	if cfg.RedisEnabled() {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
		})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()

		redisBus := events.NewRedisBus(rdb, cfg.Redis.ChannelPrefix, log)
		bus = redisBus
		guard = transfer.NewRedisGuard(rdb, cfg.Transfer.GuardTTL)
		go func() {
			if err := redisBus.Relay(rootCtx, hub); err != nil && rootCtx.Err() == nil {
				log.Error("redis relay stopped", "err", err)
				stop()
			}
		}()
	}

	callStore := calls.NewSQLRepository(db)
	processor := callevents.NewProcessor(
		callStore,
		routing.NewResolver(directory.NewSQLRepository(db)),
		dispatch.NewDispatcher(bus),
		log,
	)

	twilioOpts := []telephony.TwilioOption{
		telephony.WithRateLimit(cfg.Twilio.APIRequestsPerSecond, 1+int(cfg.Twilio.APIRequestsPerSecond)),
		telephony.WithStatusCallback(cfg.URL("/webhooks/voice/outbound-status")),
	}
	if cfg.Twilio.APIBaseURL != "" {
		twilioOpts = append(twilioOpts, telephony.WithBaseURL(cfg.Twilio.APIBaseURL))
	}
	control := telephony.NewTwilioClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, twilioOpts...)

	joinURL := func(conferenceID string) string {
		return cfg.URL("/twiml/conference/" + url.PathEscape(conferenceID))
	}
	orchestrator := transfer.NewOrchestrator(control, joinURL,
		transfer.WithCallStore(callStore),
		transfer.WithLogger(log),
	)

	h := httpapi.Handlers{
		CallEvents:        processor,
		Transfers:         orchestrator,
		Guard:             guard,
		Audit:             audit.NewService(audit.NewSQLRepository(db)),
		Hub:               hub,
		Reports:           reporting.NewService(reporting.NewSQLRepository(db)),
		DB:                db,
		PublicURL:         cfg.URL,
		RecordConferences: cfg.Twilio.RecordConferences,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log, "/healthz"))
	registerRoutes(r, h, cfg, auth.RequireAccessToken(authManager))

	var handler http.Handler = r
	if len(cfg.App.CORSAllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins:   cfg.App.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}).Handler(r)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "db", cfg.DB.Driver, "redis", cfg.RedisEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
