package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/multierr"

	"procurement/internal/apperr"
)

const uniqueViolation = "23505"

// Storage is the single persistence implementation for bids, vendors and accounts.
type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// Connect opens and pings a postgres pool.
func Connect(dsn string, maxOpenConns int) (*sqlx.DB, error) {
	conn, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if maxOpenConns > 0 {
		conn.SetMaxOpenConns(maxOpenConns)
		conn.SetMaxIdleConns(maxOpenConns)
	}
	return conn, nil
}

// withTx runs fn in a transaction, rolling back on error or panic.
func (s *Storage) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = multierr.Append(err, rbErr)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// notFound maps sql.ErrNoRows to a NotFound AppError naming what.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(what)
	}
	return err
}
