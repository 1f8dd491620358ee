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
	"golang.org/x/sync/errgroup"

	absencehandler "hrportal/internal/absence/handler"
	absencemetrics "hrportal/internal/absence/metrics"
	"hrportal/internal/absence/models"
	absenceservice "hrportal/internal/absence/service"
	historystore "hrportal/internal/absence/store/history"
	requeststore "hrportal/internal/absence/store/request"
	authhandler "hrportal/internal/auth/handler"
	authmetrics "hrportal/internal/auth/metrics"
	authservice "hrportal/internal/auth/service"
	userstore "hrportal/internal/auth/store/user"
	contactshandler "hrportal/internal/contacts/handler"
	contactsservice "hrportal/internal/contacts/service"
	contactsstore "hrportal/internal/contacts/store"
	jwttoken "hrportal/internal/jwt_token"
	notifhandler "hrportal/internal/notification/handler"
	notifservice "hrportal/internal/notification/service"
	notifstore "hrportal/internal/notification/store"
	"hrportal/internal/platform/config"
	"hrportal/internal/platform/httpserver"
	"hrportal/internal/platform/logger"
	platformredis "hrportal/internal/platform/redis"
	"hrportal/internal/ratelimit"
	transporthttp "hrportal/internal/transport/http"
	"hrportal/pkg/platform/tx"
)

// main wires dependencies and keeps the process lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	// Persistence: Postgres when configured, in-memory otherwise.
	var (
		users    authservice.UserStore
		requests absenceservice.RequestStore
		history  absenceservice.HistoryStore
		notifs   notifservice.Store
		contacts contactsservice.ContactStore
		runner   tx.Runner = tx.NopRunner{}
		db       *sql.DB
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		if err := db.Ping(); err != nil {
			log.Error("failed to reach database", "error", err)
			os.Exit(1)
		}
		users = userstore.NewPostgres(db)
		requests = requeststore.NewPostgres(db)
		history = historystore.NewPostgres(db)
		notifs = notifstore.NewPostgres(db)
		contacts = contactsstore.NewPostgres(db)
		runner = tx.SQLRunner{DB: db}
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		users = userstore.NewInMemory()
		requests = requeststore.NewInMemory()
		history = historystore.NewInMemory()
		notifs = notifstore.NewInMemory()
		contacts = contactsstore.NewInMemory()
	}

	// Login throttling: Redis-backed when configured, in-process otherwise.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	var lockoutStore ratelimit.LockoutStore = ratelimit.NewMemoryLockoutStore()
	if redisClient != nil {
		lockoutStore = ratelimit.NewRedisLockoutStore(redisClient.Client)
	}
	throttle := ratelimit.NewLockout(lockoutStore, cfg.Lockout, log)

	tokens := jwttoken.NewService(cfg.JWTSigningKey, "hrportal", cfg.TokenTTL)

	notifSvc := notifservice.New(notifs, log)
	authSvc := authservice.New(users, tokens, log,
		authservice.WithThrottle(throttle),
		authservice.WithMetrics(authmetrics.New()))
	workflowSvc := absenceservice.New(requests, history, users, runner,
		models.Stages(cfg.ApprovalStages), log,
		absenceservice.WithNotifier(notifSvc),
		absenceservice.WithMetrics(absencemetrics.New()))
	contactSvc := contactsservice.New(contacts)

	health := map[string]transporthttp.HealthCheck{}
	if db != nil {
		health["database"] = db.PingContext
	}
	if redisClient != nil {
		health["redis"] = redisClient.Health
	}

	router := transporthttp.NewRouter(transporthttp.Config{
		Logger:   log,
		Verifier: tokens,
		Public: []transporthttp.PublicRegistrar{
			authhandler.New(authSvc, log),
		},
		Protected: []transporthttp.ProtectedRegistrar{
			authhandler.New(authSvc, log),
			absencehandler.New(workflowSvc, log),
			notifhandler.New(notifSvc, log),
			contactshandler.New(contactSvc, log),
		},
		Health: health,
	})

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting hrportal", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := notifSvc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	if db != nil {
		_ = db.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	log.Info("server stopped")
}
