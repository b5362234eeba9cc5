package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/foodservice/internal/account"
	"github.com/geocoder89/foodservice/internal/auth"
	"github.com/geocoder89/foodservice/internal/config"
	"github.com/geocoder89/foodservice/internal/credentials"
	"github.com/geocoder89/foodservice/internal/db"
	"github.com/geocoder89/foodservice/internal/domain/user"
	httpx "github.com/geocoder89/foodservice/internal/http"
	"github.com/geocoder89/foodservice/internal/http/handlers"
	"github.com/geocoder89/foodservice/internal/observability"
	"github.com/geocoder89/foodservice/internal/repo/memory"
	"github.com/geocoder89/foodservice/internal/repo/postgres"
	"github.com/geocoder89/foodservice/internal/security"
	"github.com/geocoder89/foodservice/internal/throttle"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type userStore interface {
	credentials.Repository
	credentials.RoleRepository
}

func main() {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx := context.Background()

	if cfg.TracingEnabled {
		shutdownTracer, err := observability.InitTracer(ctx, "foodservice-api", cfg.OTLPEndpoint)
		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			defer func() {
				tctx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdownTracer(tctx)
			}()
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	readyChecks := map[string]handlers.Check{}

	var store userStore
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("using in-memory user store; data is lost on restart")
		store = memory.NewUsersRepo()
	default:
		if err := db.Migrate(cfg.DBURL); err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}

		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		readyChecks["db"] = pool.Ping
		store = postgres.NewUsersRepo(pool, prom)
	}

	seedCtx, cancelSeed := config.WithTimeout(ctx, 10*time.Second)
	db.EnsureRoles(seedCtx, store, log, user.WellKnownRoles...)
	cancelSeed()

	var counter throttle.Counter = throttle.NewMemoryCounter()
	if cfg.RedisAddr != "" {
		rc := throttle.DialRedis(throttle.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rc.Close() }()

		pingCtx, cancelPing := config.WithTimeout(ctx, 2*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			log.Warn("redis not reachable at startup; limiter fails open until it is", "addr", cfg.RedisAddr, "err", err)
		}
		cancelPing()

		readyChecks["redis"] = rc.Ping
		counter = rc
	}

	creds := credentials.NewStore(store, security.NewHasher(cfg.BcryptCost), security.DefaultPasswordPolicy())
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL)

	accounts := account.NewService(creds, tokens,
		account.WithLogger(log),
		account.WithRecorder(prom),
		account.WithPhoneRegion(cfg.PhoneRegion),
		account.WithAttemptLimiter(throttle.NewAttemptLimiter(counter, cfg.SignInMaxAttempts, cfg.SignInLockout)),
	)

	router := httpx.NewRouter(httpx.Deps{
		Log:            log,
		Env:            cfg.Env,
		Accounts:       accounts,
		Verifier:       tokens,
		Prom:           prom,
		Gatherer:       reg,
		RateCounter:    counter,
		AuthRateLimit:  cfg.AuthRateLimit,
		AuthRateWindow: cfg.AuthRateWindow,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		ReadyChecks:    readyChecks,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")
	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
