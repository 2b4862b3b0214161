// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountdb

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/pkg/errors"
)

// Tx is one transaction scope, tagged with a human-readable name and an
// exact nesting depth: 0 for a top-level transaction, incrementing by one
// per nesting level. Nested scopes map to sqlite savepoints, so rolling
// back an outer scope discards every inner mutation atomically.
type Tx struct {
	ctx   context.Context
	sqlTx *sql.Tx
	store *Store
	tag   string
	depth int
}

// Tag returns the name this scope was opened with.
func (tx *Tx) Tag() string { return tx.tag }

// Depth returns the nesting depth of this scope.
func (tx *Tx) Depth() int { return tx.depth }

// Get reads within this transaction, observing its uncommitted writes.
func (tx *Tx) Get(filter Filter) (*Account, error) {
	return get(tx.ctx, tx.sqlTx, filter)
}

// GetAll lists within this transaction, observing its uncommitted writes.
func (tx *Tx) GetAll(filter Filter, opts *Options) ([]*Account, error) {
	return getAll(tx.ctx, tx.sqlTx, filter, opts)
}

// RunInTransaction executes fn inside a top-level transaction tagged with
// the given name at depth 0. The transaction commits when fn returns nil
// and rolls back on error or panic. The storage error is propagated as-is.
func (s *Store) RunInTransaction(ctx context.Context, tag string, fn func(*Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	tx := &Tx{ctx: ctx, sqlTx: sqlTx, store: s, tag: tag, depth: 0}
	s.observeTx(tag, 0)

	if err = runGuarded(tx, fn); err != nil {
		sqlTx.Rollback()
		return err
	}
	return sqlTx.Commit()
}

// Nest executes fn inside a savepoint one level deeper than the receiver.
// The nested scope inherits the tag it is given; its failure rolls back
// only the savepoint, leaving the enclosing scope usable.
func (tx *Tx) Nest(tag string, fn func(*Tx) error) error {
	name := "sp_" + strconv.Itoa(tx.depth+1)
	if _, err := tx.sqlTx.ExecContext(tx.ctx, "SAVEPOINT "+name); err != nil {
		return err
	}
	nested := &Tx{ctx: tx.ctx, sqlTx: tx.sqlTx, store: tx.store, tag: tag, depth: tx.depth + 1}
	tx.store.observeTx(tag, nested.depth)

	if err := runGuarded(nested, fn); err != nil {
		if _, rbErr := tx.sqlTx.ExecContext(tx.ctx, "ROLLBACK TO "+name); rbErr != nil {
			return errors.WithMessage(rbErr, "rollback to savepoint")
		}
		// the savepoint itself stays on the stack after ROLLBACK TO
		tx.sqlTx.ExecContext(tx.ctx, "RELEASE "+name)
		return err
	}
	_, err := tx.sqlTx.ExecContext(tx.ctx, "RELEASE "+name)
	return err
}

// the sql driver drops panics raised inside an active transaction,
// so convert them to errors before they cross it.
func runGuarded(tx *Tx, fn func(*Tx) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var ok bool
			if err, ok = r.(error); !ok {
				err = errors.Errorf("%v", r)
			}
		}
	}()
	return fn(tx)
}

func (s *Store) observeTx(tag string, depth int) {
	metricsHandleTx(tag, depth)
	if s.txHook != nil {
		s.txHook(tag, depth)
	}
}
