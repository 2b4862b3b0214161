// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountdb

import (
	"encoding/hex"
	"math/big"

	"github.com/forgechain/forged/forge"
)

// Account one account row, fully materialized.
// Big integer fields are never nil after materialization.
type Account struct {
	Address         forge.Address
	PublicKey       []byte
	SecondPublicKey []byte

	SecondSignature  bool
	USecondSignature bool
	IsDelegate       bool
	UIsDelegate      bool
	NameExist        bool
	UNameExist       bool

	Username  string
	UUsername string

	Balance  *big.Int
	UBalance *big.Int
	Vote     *big.Int
	Fees     *big.Int
	Rewards  *big.Int

	Rate           uint64
	ProducedBlocks uint64
	MissedBlocks   uint64
	BlockID        string

	Delegates        []string
	UDelegates       []string
	Multisignatures  []string
	UMultisignatures []string

	Multimin       uint32
	UMultimin      uint32
	Multilifetime  uint32
	UMultilifetime uint32

	// Rank is filled by delegate ranking from the pagination position.
	// It is not a stored column.
	Rank uint64
}

// Filter is the closed set of account lookup criteria.
// A nil Filter matches all rows (GetAll only).
type Filter interface {
	// clause returns the WHERE condition and its arguments.
	clause() (string, []interface{})
	// identity returns what the filter pins down, for row creation.
	identity() (forge.Address, []byte)
}

// ByAddress matches the single row with the given address.
type ByAddress forge.Address

func (f ByAddress) clause() (string, []interface{}) {
	return " AND address = ?", []interface{}{string(f)}
}

func (f ByAddress) identity() (forge.Address, []byte) { return forge.Address(f), nil }

// ByPublicKey matches the single row owning the given public key.
type ByPublicKey []byte

func (f ByPublicKey) clause() (string, []interface{}) {
	return " AND publicKey = ?", []interface{}{hex.EncodeToString(f)}
}

func (f ByPublicKey) identity() (forge.Address, []byte) { return "", f }

// ByAddressAndPublicKey matches only when both fields agree.
type ByAddressAndPublicKey struct {
	Address   forge.Address
	PublicKey []byte
}

func (f ByAddressAndPublicKey) clause() (string, []interface{}) {
	return " AND address = ? AND publicKey = ?",
		[]interface{}{string(f.Address), hex.EncodeToString(f.PublicKey)}
}

func (f ByAddressAndPublicKey) identity() (forge.Address, []byte) { return f.Address, f.PublicKey }

// ByUsername matches the confirmed delegate name.
type ByUsername string

func (f ByUsername) clause() (string, []interface{}) {
	return " AND username = ?", []interface{}{string(f)}
}

func (f ByUsername) identity() (forge.Address, []byte) { return "", nil }

// DelegatesOnly matches accounts registered as delegates.
type DelegatesOnly struct{}

func (DelegatesOnly) clause() (string, []interface{}) { return " AND isDelegate = 1", nil }

func (DelegatesOnly) identity() (forge.Address, []byte) { return "", nil }

// Order of a sorted listing.
type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Options shape a GetAll listing. Zero Limit means no pagination.
type Options struct {
	SortBy string
	Order  Order // default asc
	Limit  uint64
	Offset uint64
}

// Patch is the set of field writes one Upsert applies: plain assignments
// plus numeric increments. Increments keep their field non-negative or the
// whole Upsert fails.
type Patch struct {
	set map[string]interface{}
	inc map[string]*big.Int
}

// NewPatch creates an empty patch.
func NewPatch() *Patch {
	return &Patch{
		set: make(map[string]interface{}),
		inc: make(map[string]*big.Int),
	}
}

// Set records a plain field assignment. The value must match the field's
// in-memory type; mismatches surface as ErrTypeMismatch at Upsert time.
func (p *Patch) Set(name string, value interface{}) *Patch {
	p.set[name] = value
	return p
}

// Inc records a signed delta against a numeric field.
func (p *Patch) Inc(name string, delta *big.Int) *Patch {
	p.inc[name] = new(big.Int).Set(delta)
	return p
}

// SetAddress records the account address.
func (p *Patch) SetAddress(a forge.Address) *Patch { return p.Set("address", a) }

// SetPublicKey records the account public key.
func (p *Patch) SetPublicKey(pub []byte) *Patch { return p.Set("publicKey", pub) }

// Address reports the address carried by the patch, if any.
func (p *Patch) Address() (forge.Address, bool) {
	v, ok := p.set["address"]
	if !ok {
		return "", false
	}
	a, ok := v.(forge.Address)
	return a, ok
}

// PublicKey reports the public key carried by the patch, if any.
func (p *Patch) PublicKey() ([]byte, bool) {
	v, ok := p.set["publicKey"]
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

// Empty reports whether the patch carries no writes at all.
func (p *Patch) Empty() bool {
	return len(p.set) == 0 && len(p.inc) == 0
}
