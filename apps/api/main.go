package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	fleethandler "github.com/clubreserve/clubreserve/domains/fleet/be/handler"
	fleetrepo "github.com/clubreserve/clubreserve/domains/fleet/be/repo"
	fleetservice "github.com/clubreserve/clubreserve/domains/fleet/be/service"
	membersrepo "github.com/clubreserve/clubreserve/domains/members/be/repo"
	membersservice "github.com/clubreserve/clubreserve/domains/members/be/service"
	messageshandler "github.com/clubreserve/clubreserve/domains/messages/be/handler"
	messagesrepo "github.com/clubreserve/clubreserve/domains/messages/be/repo"
	messagesservice "github.com/clubreserve/clubreserve/domains/messages/be/service"
	registryrepo "github.com/clubreserve/clubreserve/domains/registry/be/repo"
	registryservice "github.com/clubreserve/clubreserve/domains/registry/be/service"
	reservationshandler "github.com/clubreserve/clubreserve/domains/reservations/be/handler"
	reservationsrepo "github.com/clubreserve/clubreserve/domains/reservations/be/repo"
	reservationsservice "github.com/clubreserve/clubreserve/domains/reservations/be/service"
	settingshandler "github.com/clubreserve/clubreserve/domains/settings/be/handler"
	settingsrepo "github.com/clubreserve/clubreserve/domains/settings/be/repo"
	settingsservice "github.com/clubreserve/clubreserve/domains/settings/be/service"
	waitlisthandler "github.com/clubreserve/clubreserve/domains/waitlist/be/handler"
	waitlistrepo "github.com/clubreserve/clubreserve/domains/waitlist/be/repo"
	waitlistservice "github.com/clubreserve/clubreserve/domains/waitlist/be/service"
	"github.com/clubreserve/clubreserve/platform/go/auth"
	clubmw "github.com/clubreserve/clubreserve/platform/go/club/middleware"
	platformlogging "github.com/clubreserve/clubreserve/platform/go/logging"
	"github.com/clubreserve/clubreserve/platform/go/metrics"
	platformmiddleware "github.com/clubreserve/clubreserve/platform/go/middleware"
	"github.com/clubreserve/clubreserve/platform/go/notify"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
	"github.com/clubreserve/clubreserve/platform/go/secrets"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	// DatabaseURL points at the master registry database.
	DatabaseURL string `env:"DATABASE_URL,required"`
	// SharedDatabaseURL is the fallback club database for deployments that
	// do not split clubs into dedicated databases.
	SharedDatabaseURL string `env:"SHARED_DATABASE_URL"`
	PGHost            string `env:"PGHOST" envDefault:"localhost"`
	PGPort            string `env:"PGPORT" envDefault:"5432"`
	AuthSecret        string `env:"AUTH_SECRET,required"`
	// BaseDomain builds member-facing links: https://<club>.<BaseDomain>.
	BaseDomain   string `env:"BASE_DOMAIN" envDefault:"clubreserve.app"`
	EmailEnabled bool   `env:"EMAIL_ENABLED" envDefault:"false"`
	SMTPHost     string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"25"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"noreply@clubreserve.app"`
}

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	masterPool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("init master registry pool", zap.Error(err))
	}
	defer persistence.ClosePool(masterPool)

	clubDB := persistence.NewClubDB()
	defer clubDB.Close()

	registry := registryservice.New(registryservice.Config{
		Repo:      registryrepo.NewPostgresRepository(masterPool, logger),
		Cache:     registryservice.NewCache(),
		Secrets:   secrets.EnvStore{},
		SharedDSN: cfg.SharedDatabaseURL,
		PGHost:    cfg.PGHost,
		PGPort:    cfg.PGPort,
		Logger:    logger,
	})

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	engineMetrics := metrics.NewEngine(promRegistry)

	var sender notify.Sender
	if cfg.EmailEnabled {
		sender = notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, logger)
	} else {
		sender = &notify.LogSender{Logger: logger}
	}

	members := membersservice.New(membersrepo.NewPostgresRepository())
	settings := settingsservice.New(settingsrepo.NewPostgresRepository())
	fleet := fleetservice.New(fleetrepo.NewPostgresRepository())
	board := messagesservice.New(messagesservice.Config{Repo: messagesrepo.NewPostgresRepository()})

	waitlist := waitlistservice.New(waitlistservice.Config{
		Repo:       waitlistrepo.NewPostgresRepository(),
		Sender:     sender,
		Metrics:    engineMetrics,
		Logger:     logger,
		BaseDomain: cfg.BaseDomain,
	})

	reservations := reservationsservice.New(reservationsservice.Config{
		Repo:       reservationsrepo.NewPostgresRepository(),
		Members:    members,
		Settings:   settings,
		Fleet:      fleet,
		Sender:     sender,
		Metrics:    engineMetrics,
		Logger:     logger,
		BaseDomain: cfg.BaseDomain,
		Waitlist:   waitlist,
	})

	rootRouter := chi.NewRouter()
	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.RequestTimeout),
		platformmiddleware.DefaultCORS(),
	)
	rootRouter.Use(platformlogging.RequestLogger(logger))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := masterPool.Ping(r.Context()); err != nil {
			http.Error(w, "registry database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	apiRouter := chi.NewRouter()
	apiRouter.Use(auth.Authenticate([]byte(cfg.AuthSecret)))
	apiRouter.Use(clubmw.WithClub(registry, clubDB, logger))

	reservationshandler.New(reservations).Mount(apiRouter)
	waitlisthandler.New(waitlist).Mount(apiRouter)
	fleethandler.New(fleet).Mount(apiRouter)
	settingshandler.New(settings).Mount(apiRouter)
	messageshandler.New(board).Mount(apiRouter)

	rootRouter.Mount("/api/v1", apiRouter)

	// Registry changes made out of band (the admin CLI runs in its own
	// process) leave this server's lookup cache stale until the entry is
	// dropped here. The route sits outside club resolution: a deactivated
	// club's host no longer resolves.
	rootRouter.Route("/admin/registry", func(r chi.Router) {
		r.Use(auth.Authenticate([]byte(cfg.AuthSecret)), auth.RequireAdmin)
		r.Post("/invalidate", func(w http.ResponseWriter, r *http.Request) {
			registry.InvalidateCache(r.URL.Query().Get("club"))
			w.WriteHeader(http.StatusNoContent)
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
