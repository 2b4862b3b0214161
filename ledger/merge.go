// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/forgechain/forged/accountdb"
	"github.com/forgechain/forged/forge"
)

const mergeAccountTag = "accounts:merge"

// Diff is one delta the block processor applies to an account while
// processing or undoing a transaction: signed increments on the numeric
// fields and insert/remove operations on the voted-delegate and cosigner
// sets, on either timeline. Applying a diff and then its Negated() form is
// an exact no-op.
type Diff struct {
	Balance  *big.Int
	UBalance *big.Int
	Vote     *big.Int
	Fees     *big.Int
	Rewards  *big.Int

	ProducedBlocks int64
	MissedBlocks   int64
	BlockID        string

	AddDelegates     []string
	RemoveDelegates  []string
	AddUDelegates    []string
	RemoveUDelegates []string

	AddMultisignatures     []string
	RemoveMultisignatures  []string
	AddUMultisignatures    []string
	RemoveUMultisignatures []string
}

// Negated returns the inverse diff, used to undo a previously applied one.
func (d *Diff) Negated() *Diff {
	neg := func(v *big.Int) *big.Int {
		if v == nil {
			return nil
		}
		return new(big.Int).Neg(v)
	}
	return &Diff{
		Balance:  neg(d.Balance),
		UBalance: neg(d.UBalance),
		Vote:     neg(d.Vote),
		Fees:     neg(d.Fees),
		Rewards:  neg(d.Rewards),

		ProducedBlocks: -d.ProducedBlocks,
		MissedBlocks:   -d.MissedBlocks,
		BlockID:        d.BlockID,

		AddDelegates:     d.RemoveDelegates,
		RemoveDelegates:  d.AddDelegates,
		AddUDelegates:    d.RemoveUDelegates,
		RemoveUDelegates: d.AddUDelegates,

		AddMultisignatures:     d.RemoveMultisignatures,
		RemoveMultisignatures:  d.AddMultisignatures,
		AddUMultisignatures:    d.RemoveUMultisignatures,
		RemoveUMultisignatures: d.AddUMultisignatures,
	}
}

// MergeAccountAndGet applies a diff to an existing account and returns the
// materialized result. The account must exist; a diff never creates rows.
// Increments that would drive a field negative fail the whole merge with no
// mutation, as do set operations that do not apply cleanly (inserting a
// present key, removing an absent one).
func (e *Engine) MergeAccountAndGet(ctx context.Context, addr forge.Address, diff *Diff, tx *accountdb.Tx) (*accountdb.Account, error) {
	if !addr.Valid() {
		return nil, errors.Errorf("merge: invalid address %q", addr)
	}

	var account *accountdb.Account
	write := func(tx *accountdb.Tx) error {
		existing, err := tx.Get(accountdb.ByAddress(addr))
		if err != nil {
			return err
		}
		if existing == nil {
			return errors.WithMessage(ErrAccountNotFound, string(addr))
		}
		patch, err := diff.toPatch(existing)
		if err != nil {
			return err
		}
		account, err = tx.Upsert(accountdb.ByAddress(addr), patch)
		return err
	}

	var err error
	if tx != nil {
		err = write(tx)
	} else {
		err = e.store.RunInTransaction(ctx, mergeAccountTag, write)
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (d *Diff) toPatch(acc *accountdb.Account) (*accountdb.Patch, error) {
	patch := accountdb.NewPatch()

	for _, inc := range []struct {
		name  string
		delta *big.Int
	}{
		{"balance", d.Balance},
		{"u_balance", d.UBalance},
		{"vote", d.Vote},
		{"fees", d.Fees},
		{"rewards", d.Rewards},
		{"producedBlocks", big.NewInt(d.ProducedBlocks)},
		{"missedBlocks", big.NewInt(d.MissedBlocks)},
	} {
		if inc.delta != nil && inc.delta.Sign() != 0 {
			patch.Inc(inc.name, inc.delta)
		}
	}
	if d.BlockID != "" {
		patch.Set("blockId", d.BlockID)
	}

	for _, set := range []struct {
		name           string
		current        []string
		insert, remove []string
	}{
		{"delegates", acc.Delegates, d.AddDelegates, d.RemoveDelegates},
		{"u_delegates", acc.UDelegates, d.AddUDelegates, d.RemoveUDelegates},
		{"multisignatures", acc.Multisignatures, d.AddMultisignatures, d.RemoveMultisignatures},
		{"u_multisignatures", acc.UMultisignatures, d.AddUMultisignatures, d.RemoveUMultisignatures},
	} {
		if len(set.insert) == 0 && len(set.remove) == 0 {
			continue
		}
		merged, err := mergeKeySet(set.name, set.current, set.insert, set.remove)
		if err != nil {
			return nil, err
		}
		patch.Set(set.name, merged)
	}
	return patch, nil
}

// mergeKeySet applies insertions and removals to an ordered key set,
// preserving the order of survivors and appending insertions.
func mergeKeySet(name string, current, insert, remove []string) ([]string, error) {
	present := make(map[string]bool, len(current))
	for _, k := range current {
		present[k] = true
	}
	drop := make(map[string]bool, len(remove))
	for _, k := range remove {
		if !present[k] {
			return nil, errors.Errorf("merge: %s does not contain %s", name, k)
		}
		drop[k] = true
	}

	merged := make([]string, 0, len(current)+len(insert))
	for _, k := range current {
		if !drop[k] {
			merged = append(merged, k)
		}
	}
	for _, k := range insert {
		if present[k] && !drop[k] {
			return nil, errors.Errorf("merge: %s already contains %s", name, k)
		}
		merged = append(merged, k)
	}
	return merged, nil
}
