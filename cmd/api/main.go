package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/marketgrid/storefront/internal/auth"
	"github.com/marketgrid/storefront/internal/catalog"
	"github.com/marketgrid/storefront/internal/config"
	"github.com/marketgrid/storefront/internal/httpx"
	kafkax "github.com/marketgrid/storefront/internal/kafka"
	"github.com/marketgrid/storefront/internal/orders"
	"github.com/marketgrid/storefront/internal/postgres"
	"github.com/marketgrid/storefront/internal/redisx"
	"github.com/marketgrid/storefront/internal/users"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	prod.Start(ctx)

	orderRepo := &orders.Repo{DB: db}
	catalogRepo := &catalog.Repo{DB: db}
	userRepo := &users.Repo{DB: db}

	ah := &httpx.AuthHandler{
		Users:      userRepo,
		JWTSecret:  cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL,
		BcryptCost: cfg.BcryptCost,
	}
	ch := &httpx.CatalogHandler{Catalog: catalogRepo, Redis: rdb}
	oh := &httpx.OrdersHandler{
		Placer:   orderRepo,
		Reader:   orderRepo,
		Producer: prod,
		Redis:    rdb,
		Service:  cfg.ServiceName,
	}
	adh := &httpx.AdminHandler{Catalog: catalogRepo, Orders: orderRepo, Redis: rdb}

	router := httpx.NewRouter()
	ah.Register(router)
	ch.Register(router)
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.JWTSecret))
		oh.Register(r)
		ah.RegisterProfile(r)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(users.RoleManager, users.RoleAdmin))
			adh.RegisterStaff(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(users.RoleAdmin))
			adh.RegisterAdmin(r)
		})
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()
	cancel()
	prod.WaitClosed()
}
