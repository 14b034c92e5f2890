package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"example.com/siteforms/internal/config"
	"example.com/siteforms/internal/crm"
	"example.com/siteforms/internal/delivery"
	"example.com/siteforms/internal/errtrack"
	"example.com/siteforms/internal/guard"
	"example.com/siteforms/internal/logging"
	"example.com/siteforms/internal/metrics"
	"example.com/siteforms/internal/ratelimit"
	"example.com/siteforms/internal/recaptcha"
	spg "example.com/siteforms/internal/storage/postgres"
	transport "example.com/siteforms/internal/transport/http"
	"example.com/siteforms/internal/webhook"
)

func main() {
	// a missing .env is normal outside local development
	_ = godotenv.Load()
	cfg := config.Parse()

	log, err := logging.New(cfg.Production, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	log.Info("config loaded",
		zap.String("env", cfg.Env()),
		zap.String("port", cfg.Port),
		zap.Strings("allowed_origins", cfg.AllowedOrigins),
		zap.Bool("crm", cfg.CRMToken != ""),
		zap.Bool("webhook", cfg.WebhookURL != ""),
		zap.Bool("redis", cfg.RedisURL != ""),
		zap.Bool("database", cfg.DatabaseURL != ""))

	reporter, err := errtrack.New(cfg.SentryDSN, cfg.Env(), cfg.Release)
	if err != nil {
		log.Fatal("error tracking", zap.Error(err))
	}
	defer reporter.Flush(2 * time.Second)

	metrics.Register(prometheus.DefaultRegisterer)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	probes := map[string]transport.Probe{}
	orch := &delivery.Orchestrator{
		CRM:     crm.New(cfg.CRMBaseURL, cfg.CRMToken, cfg.CRMLocationID),
		Webhook: webhook.NewSender(cfg.WebhookURL, webhook.NewSigner(cfg.WebhookSecret)),
		Log:     log,
	}
	var audit delivery.AuditRecorder

	if cfg.DatabaseURL != "" {
		db, err := spg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("db connect", zap.Error(err))
		}
		defer db.Close()

		mig := filepath.Join("migrations", "0001_init.sql")
		if err := db.RunMigration(ctx, mig); err != nil {
			log.Fatal("migration", zap.Error(err), zap.String("path", mig))
		}
		log.Info("db: migration applied")

		audit = spg.NewAuditWriter(db)
		orch.Audit = audit
		probes["database"] = db.Ready
	}

	var store ratelimit.Store
	if cfg.RedisURL != "" {
		rs, err := ratelimit.NewRedisStoreFromURL(cfg.RedisURL, cfg.RedisToken)
		if err != nil {
			log.Fatal("redis", zap.Error(err))
		}
		defer func() { _ = rs.Close() }()
		store = rs
		probes["ratelimit_store"] = rs.Ready
	}

	bot := recaptcha.New(cfg.RecaptchaSecret, cfg.Production, log)
	if cfg.RecaptchaVerifyURL != "" {
		bot.VerifyURL = cfg.RecaptchaVerifyURL
	}
	if cfg.Production && cfg.RecaptchaSecret == "" {
		log.Warn("RECAPTCHA_SECRET_KEY is not set; every form submission will be rejected")
	}

	ips := guard.IPResolver{TrustedHeader: cfg.TrustedIPHeader}
	deps := &transport.ServerDeps{
		Cfg: cfg,
		Pipeline: &transport.Pipeline{
			MaxBodyBytes: cfg.MaxBodyBytes,
			Origins:      guard.NewOriginValidator(cfg.Production, cfg.AllowedOrigins),
			IPs:          ips,
			Limiter:      ratelimit.New(store, log),
			Bot:          bot,
			Reporter:     reporter,
			Timeout:      cfg.HandlerTimeout,
			Log:          log,
		},
		Delivery: orch,
		Probes:   probes,
		Inbound:  webhook.NewSigner(cfg.WebhookSecret),
		Audit:    audit,
		Metrics:  promhttp.Handler(),
		Log:      log,
		Now:      func() time.Time { return time.Now().UTC() },
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           deps.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.HandlerTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", zap.Error(err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
