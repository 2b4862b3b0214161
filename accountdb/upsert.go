// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountdb

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"

	"github.com/forgechain/forged/forge"
)

// Upsert is the sole write path of the account table. It finds the row
// matching key and applies the patch to it, or creates a fresh row from
// schema defaults merged with the key identity and the patch. Every
// increment must keep its field non-negative or the whole call fails with
// no mutation. The resulting row is read back and returned.
func (tx *Tx) Upsert(key Filter, patch *Patch) (*Account, error) {
	existing, err := tx.Get(key)
	if err != nil {
		return nil, err
	}

	var acc *Account
	if existing != nil {
		acc = existing
	} else {
		addr, pub := key.identity()
		if addr == "" {
			return nil, errors.New("upsert: filter carries no address to create a row with")
		}
		acc = newWithDefaults(addr, pub)
	}

	for name, value := range patch.set {
		if err := setField(acc, name, value); err != nil {
			return nil, err
		}
	}
	for name, delta := range patch.inc {
		if err := incField(acc, name, delta); err != nil {
			return nil, err
		}
	}
	if existing != nil && acc.Address != existing.Address {
		return nil, errors.New("upsert: address is immutable")
	}
	if err := validate(acc); err != nil {
		return nil, err
	}

	args, err := insertArgs(acc)
	if err != nil {
		return nil, err
	}
	stmt := "INSERT OR REPLACE INTO accounts(" + strings.Join(fieldNames(), ",") +
		") VALUES (?" + strings.Repeat(", ?", len(schema)-1) + ")"
	if _, err := tx.sqlTx.ExecContext(tx.ctx, stmt, args...); err != nil {
		return nil, err
	}
	return tx.Get(ByAddress(acc.Address))
}

func newWithDefaults(addr forge.Address, pub []byte) *Account {
	return &Account{
		Address:   addr,
		PublicKey: pub,
		Balance:   new(big.Int),
		UBalance:  new(big.Int),
		Vote:      new(big.Int),
		Fees:      new(big.Int),
		Rewards:   new(big.Int),
	}
}

func validate(acc *Account) error {
	if !acc.Address.Valid() {
		return errors.Errorf("invalid account address %q", acc.Address)
	}
	if int(acc.Multimin) > len(acc.Multisignatures) {
		return errors.WithMessagef(ErrMultisigThreshold, "%d > %d", acc.Multimin, len(acc.Multisignatures))
	}
	if int(acc.UMultimin) > len(acc.UMultisignatures) {
		return errors.WithMessagef(ErrMultisigThreshold, "unconfirmed %d > %d", acc.UMultimin, len(acc.UMultisignatures))
	}
	return nil
}

func setField(acc *Account, name string, value interface{}) error {
	mismatch := func(want string) error {
		return errors.WithMessagef(ErrTypeMismatch, "%s wants %s, got %T", name, want, value)
	}
	switch name {
	case "address":
		a, ok := value.(forge.Address)
		if !ok {
			return mismatch("forge.Address")
		}
		acc.Address = a
	case "publicKey", "secondPublicKey":
		b, ok := value.([]byte)
		if !ok {
			return mismatch("[]byte")
		}
		if len(b) != 0 && len(b) != forge.PublicKeyLength {
			return errors.WithMessagef(ErrTypeMismatch, "%s wants %d bytes", name, forge.PublicKeyLength)
		}
		if name == "publicKey" {
			acc.PublicKey = b
		} else {
			acc.SecondPublicKey = b
		}
	case "secondSignature", "u_secondSignature", "isDelegate", "u_isDelegate", "nameexist", "u_nameexist":
		v, ok := value.(bool)
		if !ok {
			return mismatch("bool")
		}
		switch name {
		case "secondSignature":
			acc.SecondSignature = v
		case "u_secondSignature":
			acc.USecondSignature = v
		case "isDelegate":
			acc.IsDelegate = v
		case "u_isDelegate":
			acc.UIsDelegate = v
		case "nameexist":
			acc.NameExist = v
		case "u_nameexist":
			acc.UNameExist = v
		}
	case "username", "u_username", "blockId":
		s, ok := value.(string)
		if !ok {
			return mismatch("string")
		}
		switch name {
		case "username":
			acc.Username = s
		case "u_username":
			acc.UUsername = s
		case "blockId":
			acc.BlockID = s
		}
	case "balance", "u_balance", "vote", "fees", "rewards":
		v, ok := value.(*big.Int)
		if !ok || v == nil {
			return mismatch("*big.Int")
		}
		if v.Sign() < 0 {
			return errors.WithMessagef(ErrTypeMismatch, "%s must be non-negative", name)
		}
		set := new(big.Int).Set(v)
		switch name {
		case "balance":
			acc.Balance = set
		case "u_balance":
			acc.UBalance = set
		case "vote":
			acc.Vote = set
		case "fees":
			acc.Fees = set
		case "rewards":
			acc.Rewards = set
		}
	case "rate", "producedBlocks", "missedBlocks":
		v, ok := value.(uint64)
		if !ok {
			return mismatch("uint64")
		}
		switch name {
		case "rate":
			acc.Rate = v
		case "producedBlocks":
			acc.ProducedBlocks = v
		case "missedBlocks":
			acc.MissedBlocks = v
		}
	case "multimin", "u_multimin", "multilifetime", "u_multilifetime":
		v, ok := value.(uint32)
		if !ok {
			return mismatch("uint32")
		}
		switch name {
		case "multimin":
			acc.Multimin = v
		case "u_multimin":
			acc.UMultimin = v
		case "multilifetime":
			acc.Multilifetime = v
		case "u_multilifetime":
			acc.UMultilifetime = v
		}
	case "delegates", "u_delegates", "multisignatures", "u_multisignatures":
		keys, ok := value.([]string)
		if !ok {
			return mismatch("[]string")
		}
		if _, err := encodeKeyList(keys); err != nil {
			return errors.WithMessage(err, name)
		}
		switch name {
		case "delegates":
			acc.Delegates = keys
		case "u_delegates":
			acc.UDelegates = keys
		case "multisignatures":
			acc.Multisignatures = keys
		case "u_multisignatures":
			acc.UMultisignatures = keys
		}
	default:
		return errors.WithMessagef(ErrTypeMismatch, "unknown field %q", name)
	}
	return nil
}

func incField(acc *Account, name string, delta *big.Int) error {
	bump := func(old *big.Int) (*big.Int, error) {
		v := new(big.Int).Add(old, delta)
		if v.Sign() < 0 {
			return nil, errors.WithMessagef(ErrNegativeBalance, "%s: %s + %s", name, old, delta)
		}
		return v, nil
	}
	switch name {
	case "balance", "u_balance", "vote", "fees", "rewards":
		var dest **big.Int
		switch name {
		case "balance":
			dest = &acc.Balance
		case "u_balance":
			dest = &acc.UBalance
		case "vote":
			dest = &acc.Vote
		case "fees":
			dest = &acc.Fees
		case "rewards":
			dest = &acc.Rewards
		}
		v, err := bump(*dest)
		if err != nil {
			return err
		}
		*dest = v
	case "rate", "producedBlocks", "missedBlocks":
		var dest *uint64
		switch name {
		case "rate":
			dest = &acc.Rate
		case "producedBlocks":
			dest = &acc.ProducedBlocks
		case "missedBlocks":
			dest = &acc.MissedBlocks
		}
		v, err := bump(new(big.Int).SetUint64(*dest))
		if err != nil {
			return err
		}
		if !v.IsUint64() {
			return errors.WithMessagef(ErrTypeMismatch, "%s out of range", name)
		}
		*dest = v.Uint64()
	default:
		return errors.WithMessagef(ErrTypeMismatch, "field %q does not support increment", name)
	}
	return nil
}

func fieldValue(acc *Account, name string) interface{} {
	switch name {
	case "address":
		return acc.Address
	case "publicKey":
		return byteValue(acc.PublicKey)
	case "secondPublicKey":
		return byteValue(acc.SecondPublicKey)
	case "secondSignature":
		return acc.SecondSignature
	case "u_secondSignature":
		return acc.USecondSignature
	case "isDelegate":
		return acc.IsDelegate
	case "u_isDelegate":
		return acc.UIsDelegate
	case "nameexist":
		return acc.NameExist
	case "u_nameexist":
		return acc.UNameExist
	case "username":
		return acc.Username
	case "u_username":
		return acc.UUsername
	case "balance":
		return acc.Balance
	case "u_balance":
		return acc.UBalance
	case "vote":
		return acc.Vote
	case "rate":
		return acc.Rate
	case "fees":
		return acc.Fees
	case "rewards":
		return acc.Rewards
	case "producedBlocks":
		return acc.ProducedBlocks
	case "missedBlocks":
		return acc.MissedBlocks
	case "blockId":
		return acc.BlockID
	case "delegates":
		return acc.Delegates
	case "u_delegates":
		return acc.UDelegates
	case "multisignatures":
		return acc.Multisignatures
	case "u_multisignatures":
		return acc.UMultisignatures
	case "multimin":
		return acc.Multimin
	case "u_multimin":
		return acc.UMultimin
	case "multilifetime":
		return acc.Multilifetime
	case "u_multilifetime":
		return acc.UMultilifetime
	}
	return nil
}

func byteValue(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}

func insertArgs(acc *Account) ([]interface{}, error) {
	args := make([]interface{}, 0, len(schema))
	for _, f := range schema {
		raw, err := convertForStorage(f.name, fieldValue(acc, f.name))
		if err != nil {
			return nil, err
		}
		args = append(args, raw)
	}
	return args, nil
}
