package db

import (
	"context"

	"invest_platform/internal/logger"
	"invest_platform/internal/repository/sqlite"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(dsn string) *pgxpool.Pool {
	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		logger.Fatal("failed to create database pool", "error", err)
	}

	if err := db.Ping(context.Background()); err != nil {
		logger.Fatal("failed to ping database", "error", err)
	}

	logger.Info("database connected", "driver", "postgres")
	return db
}

// ConnectSQLite opens the embedded store at path. An empty path or ":memory:" gives a private in-memory database.
func ConnectSQLite(path string) *sqlite.Store {
	dsn := path
	if dsn == "" || dsn == ":memory:" {
		dsn = sqlite.MemoryDSN()
	}

	store, err := sqlite.Open(dsn)
	if err != nil {
		logger.Fatal("failed to open sqlite store", "error", err, "path", path)
	}

	logger.Info("database connected", "driver", "sqlite", "path", path)
	return store
}
