// Command seed provisions the reference data a fresh database needs: roles,
// order statuses, demo stores and the two staff accounts.
package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/marketgrid/storefront/internal/config"
	"github.com/marketgrid/storefront/internal/postgres"
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
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	for _, stmt := range []string{
		`INSERT INTO roles(id, name) VALUES (1,'customer'), (2,'manager'), (3,'admin')
		 ON CONFLICT (id) DO NOTHING`,
		`INSERT INTO order_statuses(name) VALUES ('new'), ('processing'), ('fulfilled'), ('cancelled')
		 ON CONFLICT (name) DO NOTHING`,
		`INSERT INTO stores(city, address)
		 SELECT 'Springfield', '12 Main St' WHERE NOT EXISTS (SELECT 1 FROM stores)`,
		`INSERT INTO stores(city, address)
		 SELECT 'Shelbyville', '4 Elm Ave' WHERE (SELECT count(*) FROM stores) < 2`,
	} {
		if _, err := db.Exec(ctx, stmt); err != nil {
			logger.Fatal("seed reference data", zap.Error(err))
		}
	}
	logger.Info("roles, statuses and stores seeded")

	repo := &users.Repo{DB: db}
	seedStaff(ctx, logger, repo, cfg.BcryptCost)
}

func seedStaff(ctx context.Context, logger *zap.Logger, repo *users.Repo, cost int) {
	adminHash, err := users.HashPassword("admin", cost)
	if err != nil {
		logger.Fatal("hash admin password", zap.Error(err))
	}
	_, err = repo.Create(ctx, users.User{
		RoleID:       users.RoleAdmin,
		Email:        "admin@shop.com",
		PasswordHash: adminHash,
		FirstName:    "Head",
		LastName:     "Admin",
		Phone:        "11111111111",
	})
	switch err {
	case nil:
		logger.Info("admin account created", zap.String("email", "admin@shop.com"))
	case users.ErrEmailTaken:
		logger.Info("admin account already present")
	default:
		logger.Fatal("create admin", zap.Error(err))
	}

	managerHash, err := users.HashPassword("manager", cost)
	if err != nil {
		logger.Fatal("hash manager password", zap.Error(err))
	}
	storeID := int64(1)
	_, err = repo.Create(ctx, users.User{
		RoleID:       users.RoleManager,
		Email:        "manager@shop.com",
		PasswordHash: managerHash,
		FirstName:    "Ivan",
		LastName:     "Manager",
		Phone:        "22222222222",
		StoreID:      &storeID,
	})
	switch err {
	case nil:
		logger.Info("manager account created",
			zap.String("email", "manager@shop.com"), zap.Int64("store_id", storeID))
	case users.ErrEmailTaken:
		logger.Info("manager account already present")
	default:
		logger.Fatal("create manager", zap.Error(err))
	}
}
