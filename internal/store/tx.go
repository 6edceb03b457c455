package store

import "github.com/uptrace/bun"

// SafeTx wraps a bun.Tx so Rollback is a safe no-op once Commit has
// succeeded — adapted from emergent's internal/database.SafeTx. Without
// this, a deferred Rollback() after a successful Commit() would attempt
// to roll back an already-closed transaction.
type SafeTx struct {
	bun.Tx
	committed bool
}

// Commit commits the transaction and marks it committed.
func (tx *SafeTx) Commit() error {
	if tx.committed {
		return nil
	}
	if err := tx.Tx.Commit(); err != nil {
		return err
	}
	tx.committed = true
	return nil
}

// Rollback rolls back the transaction unless it has already committed.
func (tx *SafeTx) Rollback() error {
	if tx.committed {
		return nil
	}
	return tx.Tx.Rollback()
}
