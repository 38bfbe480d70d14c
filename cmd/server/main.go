// Command server runs the application-state coordinator as a standalone
// service: the navigation stack, credit ledger, gallery reconciler, and
// history log behind an HTTP API for the host shell.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"atelier/internal/gallery"
	galleryhandler "atelier/internal/gallery/handler"
	gallerymetrics "atelier/internal/gallery/metrics"
	"atelier/internal/generation"
	generationhandler "atelier/internal/generation/handler"
	"atelier/internal/history"
	historyhandler "atelier/internal/history/handler"
	"atelier/internal/identity"
	"atelier/internal/ledger"
	ledgerhandler "atelier/internal/ledger/handler"
	ledgermetrics "atelier/internal/ledger/metrics"
	"atelier/internal/notify"
	"atelier/internal/platform/config"
	"atelier/internal/platform/httpserver"
	"atelier/internal/platform/logger"
	platformredis "atelier/internal/platform/redis"
	"atelier/internal/registry"
	"atelier/internal/store/local"
	"atelier/internal/store/ports"
	"atelier/internal/store/remote"
	httptransport "atelier/internal/transport/http"
	workspacehandler "atelier/internal/workspace/handler"
	"atelier/internal/workspace/stack"
	"atelier/internal/workspace/urlsync"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	// Local cache: Redis when configured, otherwise in-process memory.
	var cache ports.LocalCache
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		cache = local.NewRedisCache(redisClient.Client)
	} else {
		cache = local.NewMemoryCache()
	}

	// Lift any pre-coordinator flat keys into the namespaced layout.
	if err := cache.MigrateLegacyData(ctx); err != nil {
		log.Warn("legacy cache migration failed", "error", err)
	}

	// Durable remote store: direct Postgres when a DSN is given, otherwise
	// the backend REST API.
	var users ports.UserStore
	var guests ports.GuestStore
	switch {
	case cfg.PostgresDSN != "":
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
		pg := remote.NewPostgres(db, cfg.GuestDefaultCredits, cfg.PublicBaseURL)
		users = pg
		guests = pg.GuestStore()
	case cfg.RemoteBaseURL != "":
		client := remote.NewClient(cfg.RemoteBaseURL, remote.WithClientLogger(log))
		users = client
		guests = client.Guests()
	default:
		log.Error("no durable store configured: set ATELIER_POSTGRES_DSN or ATELIER_REMOTE_URL")
		os.Exit(1)
	}

	reg := registry.New(registry.WithLogger(log))
	if err := reg.Load(ctx, cfg.RegistryPath); err != nil {
		log.Error("tool registry load failed", "path", cfg.RegistryPath, "error", err)
		os.Exit(1)
	}

	resolver := identity.NewResolver(cache, cfg.JWTSigningKey, identity.WithLogger(log))
	notifier := notify.LogNotifier{Logger: log}

	ledgerSvc := ledger.NewService(resolver, users, guests, notifier, notifier,
		ledger.WithLogger(log),
		ledger.WithMetrics(ledgermetrics.New()),
	)
	gallerySvc := gallery.NewService(resolver, users, guests, cache, notifier,
		gallery.WithLogger(log),
		gallery.WithMetrics(gallerymetrics.New()),
	)

	historyOpts := []history.Option{history.WithLogger(log)}
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := history.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka sink init failed", "error", err)
			os.Exit(1)
		}
		historyOpts = append(historyOpts, history.WithSink(sink), history.WithAsyncBuffer(256))
	}
	recorder := history.NewRecorder(cache, users, resolver, historyOpts...)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := recorder.Close(closeCtx); err != nil {
			log.Warn("history recorder close failed", "error", err)
		}
	}()

	var generator generation.Generator
	if cfg.GeneratorURL != "" {
		generator = generation.NewHTTPGenerator(cfg.GeneratorURL)
	} else {
		generator = unconfiguredGenerator{}
	}
	runner := generation.NewRunner(reg, ledgerSvc, gallerySvc, recorder, generator,
		generation.WithLogger(log))

	st := stack.New()
	sync := urlsync.New(st, reg, urlsync.NewMemoryRouter(), urlsync.WithLogger(log))
	go sync.Run(ctx)

	router := httptransport.NewRouter(
		workspacehandler.New(st, sync, log),
		ledgerhandler.New(ledgerSvc, log),
		galleryhandler.New(gallerySvc, log),
		historyhandler.New(recorder, log),
		generationhandler.New(runner, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting atelier coordinator", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// unconfiguredGenerator fails every run; deployments that only coordinate
// state without generating images leave ATELIER_GENERATOR_URL unset.
type unconfiguredGenerator struct{}

func (unconfiguredGenerator) Generate(context.Context, generation.Request) (generation.Result, error) {
	return generation.Result{}, errors.New("no generation backend configured")
}
