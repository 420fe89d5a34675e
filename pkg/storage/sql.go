package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/noah-isme/sma-adp-client/pkg/config"
)

const kvSchema = `CREATE TABLE IF NOT EXISTS kv_entries (
	entry_key   TEXT PRIMARY KEY,
	entry_value TEXT NOT NULL,
	updated_at  TIMESTAMP NOT NULL
)`

// SQLKV stores entries in a single table; works on sqlite3 and postgres.
type SQLKV struct {
	db *sqlx.DB
}

// NewSQLKV opens the database, applies pool settings and creates the table.
func NewSQLKV(driver, dsn string, cfg config.StorageConfig) (*SQLKV, error) {
	driverName := driver
	if driver == config.StorageSQLite {
		driverName = "sqlite3"
	}
	if dsn == "" {
		return nil, errors.New("storage dsn required")
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	if driverName == "sqlite3" {
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	kv := NewSQLKVFromDB(db)
	if err := kv.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return kv, nil
}

// NewSQLKVFromDB wraps an existing connection.
func NewSQLKVFromDB(db *sqlx.DB) *SQLKV {
	return &SQLKV{db: db}
}

// Migrate creates the backing table when missing.
func (s *SQLKV) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, kvSchema); err != nil {
		return fmt.Errorf("create kv table: %w", err)
	}
	return nil
}

func (s *SQLKV) Get(ctx context.Context, key string) (string, error) {
	var value string
	query := s.db.Rebind(`SELECT entry_value FROM kv_entries WHERE entry_key = ?`)
	if err := s.db.GetContext(ctx, &value, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", miss()
		}
		return "", fmt.Errorf("select %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLKV) Set(ctx context.Context, key, value string) error {
	query := s.db.Rebind(`INSERT INTO kv_entries (entry_key, entry_value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (entry_key) DO UPDATE SET entry_value = excluded.entry_value, updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *SQLKV) Delete(ctx context.Context, key string) error {
	query := s.db.Rebind(`DELETE FROM kv_entries WHERE entry_key = ?`)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLKV) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
