// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/forgechain/forged/accountdb"
	"github.com/forgechain/forged/forge"
)

// ConfirmPending copies every unconfirmed shadow field of one account onto
// its confirmed counterpart, inside the caller's transaction. The block
// processor invokes it when the block carrying the in-flight effects is
// accepted; the engine takes no stance on when that happens.
func (e *Engine) ConfirmPending(addr forge.Address, tx *accountdb.Tx) (*accountdb.Account, error) {
	return e.reconcile(addr, tx, false)
}

// RevertPending discards the unconfirmed timeline of one account by
// resetting every shadow field to its confirmed counterpart, inside the
// caller's transaction. Used when in-flight effects are rolled back.
func (e *Engine) RevertPending(addr forge.Address, tx *accountdb.Tx) (*accountdb.Account, error) {
	return e.reconcile(addr, tx, true)
}

func (e *Engine) reconcile(addr forge.Address, tx *accountdb.Tx, revert bool) (*accountdb.Account, error) {
	if tx == nil {
		return nil, errors.New("reconcile: a transaction is required")
	}
	acc, err := tx.Get(accountdb.ByAddress(addr))
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, errors.WithMessage(ErrAccountNotFound, string(addr))
	}

	patch := accountdb.NewPatch()
	copyBool := func(confirmed, unconfirmed string, c, u bool) {
		if revert {
			patch.Set(unconfirmed, c)
		} else {
			patch.Set(confirmed, u)
		}
	}
	copyString := func(confirmed, unconfirmed string, c, u string) {
		if revert {
			patch.Set(unconfirmed, c)
		} else {
			patch.Set(confirmed, u)
		}
	}
	copyBig := func(confirmed, unconfirmed string, c, u *big.Int) {
		if revert {
			patch.Set(unconfirmed, c)
		} else {
			patch.Set(confirmed, u)
		}
	}
	copyKeys := func(confirmed, unconfirmed string, c, u []string) {
		if revert {
			patch.Set(unconfirmed, c)
		} else {
			patch.Set(confirmed, u)
		}
	}
	copyUint := func(confirmed, unconfirmed string, c, u uint32) {
		if revert {
			patch.Set(unconfirmed, c)
		} else {
			patch.Set(confirmed, u)
		}
	}

	copyBool("secondSignature", "u_secondSignature", acc.SecondSignature, acc.USecondSignature)
	copyBool("isDelegate", "u_isDelegate", acc.IsDelegate, acc.UIsDelegate)
	copyBool("nameexist", "u_nameexist", acc.NameExist, acc.UNameExist)
	copyString("username", "u_username", acc.Username, acc.UUsername)
	copyBig("balance", "u_balance", acc.Balance, acc.UBalance)
	copyKeys("delegates", "u_delegates", acc.Delegates, acc.UDelegates)
	copyKeys("multisignatures", "u_multisignatures", acc.Multisignatures, acc.UMultisignatures)
	copyUint("multimin", "u_multimin", acc.Multimin, acc.UMultimin)
	copyUint("multilifetime", "u_multilifetime", acc.Multilifetime, acc.UMultilifetime)

	return tx.Upsert(accountdb.ByAddress(addr), patch)
}
