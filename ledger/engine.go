// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger is the account-state engine: it resolves address/publicKey
// identity, enforces the derivation invariant and wraps every mutation in a
// named, depth-tracked transaction. Reconciliation between the confirmed and
// unconfirmed timelines is driven by the block processor through the
// primitives exposed here; the engine never decides when to reconcile.
package ledger

import (
	"context"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"

	"github.com/forgechain/forged/accountdb"
	"github.com/forgechain/forged/forge"
)

// setAccountTag names the transaction opened when the caller provides none.
const setAccountTag = "accounts:set"

var (
	// ErrAddressMismatch the supplied address disagrees with the one derived
	// from the supplied public key.
	ErrAddressMismatch = errors.New("address does not match public key")
	// ErrAccountNotFound a merge targeted an address with no stored row.
	ErrAccountNotFound = errors.New("account not found")
	// ErrNotBound a collaborator-dependent query ran before Bind.
	ErrNotBound = errors.New("engine not bound")
)

// HeightProvider exposes the current chain height. Read-only; consulted by
// delegate ranking.
type HeightProvider interface {
	BestHeight(ctx context.Context) (uint64, error)
}

// Engine orchestrates all account reads and writes.
type Engine struct {
	store   *accountdb.Store
	log     log15.Logger
	heights HeightProvider
}

// New creates an engine. It fails rather than producing a half-initialized
// engine when a collaborator is missing.
func New(store *accountdb.Store, log log15.Logger) (*Engine, error) {
	if store == nil {
		return nil, errors.New("ledger: store is required")
	}
	if log == nil {
		return nil, errors.New("ledger: logger is required")
	}
	return &Engine{store: store, log: log}, nil
}

// Bind attaches the collaborators the engine queries transitively. Delegate
// ranking is unusable until this runs.
func (e *Engine) Bind(heights HeightProvider) {
	e.heights = heights
}

// GenerateAddressByPublicKey derives the canonical address of a public key.
func (e *Engine) GenerateAddressByPublicKey(pub []byte) (forge.Address, error) {
	return forge.AddressFromPublicKey(pub)
}

// GetAccount returns the single account matching the filter, nil when
// absent. A public-key filter is rewritten to the derived address first.
func (e *Engine) GetAccount(ctx context.Context, filter accountdb.Filter) (*accountdb.Account, error) {
	filter, err := e.rewriteFilter(filter)
	if err != nil {
		return nil, err
	}
	return e.store.Get(ctx, filter)
}

// GetAccounts returns accounts matching the filter, sorted and paginated
// per opts. An empty result is not an error.
func (e *Engine) GetAccounts(ctx context.Context, filter accountdb.Filter, opts *accountdb.Options) ([]*accountdb.Account, error) {
	filter, err := e.rewriteFilter(filter)
	if err != nil {
		return nil, err
	}
	return e.store.GetAll(ctx, filter, opts)
}

// rewriteFilter turns a public-key lookup into an address lookup, since the
// table is keyed by address.
func (e *Engine) rewriteFilter(filter accountdb.Filter) (accountdb.Filter, error) {
	if pk, ok := filter.(accountdb.ByPublicKey); ok {
		addr, err := forge.AddressFromPublicKey(pk)
		if err != nil {
			return nil, err
		}
		return accountdb.ByAddress(addr), nil
	}
	return filter, nil
}

// SetAccountAndGet is the primary write entry point: it creates or patches
// the account identified by the patch's address or public key and returns
// the materialized post-write row.
//
// With tx nil the write runs in its own top-level transaction tagged
// "accounts:set" at depth 0; otherwise it joins the caller's transaction and
// is rolled back with it.
func (e *Engine) SetAccountAndGet(ctx context.Context, patch *accountdb.Patch, tx *accountdb.Tx) (*accountdb.Account, error) {
	addr, hasAddr := patch.Address()
	pub, hasPub := patch.PublicKey()

	switch {
	case !hasAddr && !hasPub:
		return nil, errors.WithMessage(forge.ErrInvalidPublicKey, "missing address and public key")
	case hasPub:
		derived, err := forge.AddressFromPublicKey(pub)
		if err != nil {
			return nil, err
		}
		if hasAddr && derived != addr {
			return nil, errors.WithMessagef(ErrAddressMismatch, "%s != %s", addr, derived)
		}
		addr = derived
		patch.SetAddress(addr)
	}

	var account *accountdb.Account
	write := func(tx *accountdb.Tx) error {
		if hasPub {
			// the key may not already belong to a different address
			owner, err := tx.Get(accountdb.ByPublicKey(pub))
			if err != nil {
				return err
			}
			if owner != nil && owner.Address != addr {
				return errors.WithMessagef(ErrAddressMismatch, "public key owned by %s", owner.Address)
			}
		}
		// key by address alone: an address-only row may be acquiring
		// its public key with this very patch
		var err error
		account, err = tx.Upsert(accountdb.ByAddress(addr), patch)
		return err
	}

	var err error
	if tx != nil {
		err = write(tx)
	} else {
		err = e.store.RunInTransaction(ctx, setAccountTag, write)
	}
	if err != nil {
		return nil, err
	}
	e.log.Debug("account set", "address", addr)
	return account, nil
}

// Delegates lists delegate accounts ordered by vote weight, filling Rank
// from the pagination position. The reported height snapshots the bound
// height provider; calling before Bind is an error.
func (e *Engine) Delegates(ctx context.Context, limit, offset uint64) ([]*accountdb.Account, uint64, error) {
	if e.heights == nil {
		return nil, 0, errors.WithMessage(ErrNotBound, "height provider")
	}
	height, err := e.heights.BestHeight(ctx)
	if err != nil {
		return nil, 0, err
	}
	accounts, err := e.store.GetAll(ctx, accountdb.DelegatesOnly{}, &accountdb.Options{
		SortBy: "vote",
		Order:  accountdb.DESC,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, 0, err
	}
	for i, acc := range accounts {
		acc.Rank = offset + uint64(i) + 1
	}
	return accounts, height, nil
}
