// Package sqlite implements repository.Store on gorm with the SQLite driver.
// It backs single-node deployments and the service tests.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"invest_platform/internal/domain"
	"invest_platform/internal/repository"

	sqlitedriver "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is a gorm-backed repository.Store. Writers are serialized on a single
// connection, which stands in for the row locks postgres takes.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

var memSeq atomic.Int64

// MemoryDSN returns a DSN for a private in-memory database.
func MemoryDSN() string {
	return fmt.Sprintf("file:invest_mem_%d_%d?mode=memory&cache=shared&_busy_timeout=5000",
		time.Now().UnixNano(), memSeq.Add(1))
}

// Open connects to dsn and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlitedriver.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.AutoMigrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}

// SetClock overrides the time source used for created_at stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) stamp() int64 {
	return nanos(s.now())
}

// InTx runs fn in a gorm transaction. Nested calls become savepoints.
func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, now: s.now})
	})
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// finalizeResult maps a zero-row conditional update onto the right sentinel.
func (s *Store) finalizeResult(ctx context.Context, res *gorm.DB, model any, id int64) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := s.conn(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrAlreadyFinalized
}

var _ repository.Store = (*Store)(nil)
