package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Querier is the query surface repositories run against. Both *sqlx.DB and
// *sqlx.Tx satisfy it, so a repository re-bound with WithTx joins an open
// transaction transparently.
type Querier interface {
	sqlx.ExtContext
}

// TxManager is the unit-of-work boundary: each state transition, marks
// batch and report-card generation runs inside exactly one RunInTx scope.
type TxManager struct {
	db *sqlx.DB
}

// NewTxManager constructs a transaction manager.
func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

// RunInTx executes fn inside a transaction, committing on nil and rolling
// back on error or panic.
func (m *TxManager) RunInTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback() //nolint:errcheck
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
