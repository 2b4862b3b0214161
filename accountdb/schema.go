// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountdb

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/pkg/errors"

	"github.com/forgechain/forged/forge"
)

// bigIntDigits is the fixed width of persisted big integer columns.
// Zero-padded decimal text of equal width sorts lexicographically in
// numeric order, so ORDER BY on these columns is exact.
const bigIntDigits = 32

type fieldKind int

const (
	kindAddress fieldKind = iota
	kindPublicKey
	kindBool
	kindString
	kindBigInt
	kindUint
	kindKeyList
)

// field describes one account column: its semantic kind and whether it
// tracks a confirmed value that has an unconfirmed shadow counterpart.
type field struct {
	name     string
	kind     fieldKind
	shadowed bool // a "u_"-prefixed column tracks the unconfirmed timeline
}

// schema is the declarative table of every account attribute, in column order.
// Shadow columns are listed explicitly right after their confirmed peer.
var schema = []field{
	{name: "address", kind: kindAddress},
	{name: "publicKey", kind: kindPublicKey},
	{name: "secondPublicKey", kind: kindPublicKey},
	{name: "secondSignature", kind: kindBool, shadowed: true},
	{name: "u_secondSignature", kind: kindBool},
	{name: "isDelegate", kind: kindBool, shadowed: true},
	{name: "u_isDelegate", kind: kindBool},
	{name: "nameexist", kind: kindBool, shadowed: true},
	{name: "u_nameexist", kind: kindBool},
	{name: "username", kind: kindString, shadowed: true},
	{name: "u_username", kind: kindString},
	{name: "balance", kind: kindBigInt, shadowed: true},
	{name: "u_balance", kind: kindBigInt},
	{name: "vote", kind: kindBigInt},
	{name: "rate", kind: kindUint},
	{name: "fees", kind: kindBigInt},
	{name: "rewards", kind: kindBigInt},
	{name: "producedBlocks", kind: kindUint},
	{name: "missedBlocks", kind: kindUint},
	{name: "blockId", kind: kindString},
	{name: "delegates", kind: kindKeyList, shadowed: true},
	{name: "u_delegates", kind: kindKeyList},
	{name: "multisignatures", kind: kindKeyList, shadowed: true},
	{name: "u_multisignatures", kind: kindKeyList},
	{name: "multimin", kind: kindUint, shadowed: true},
	{name: "u_multimin", kind: kindUint},
	{name: "multilifetime", kind: kindUint, shadowed: true},
	{name: "u_multilifetime", kind: kindUint},
}

var schemaByName = func() map[string]field {
	m := make(map[string]field, len(schema))
	for _, f := range schema {
		m[f.name] = f
	}
	return m
}()

// sortableFields are the columns GetAll accepts in ORDER BY.
// Big integer columns sort exactly thanks to their fixed-width encoding.
var sortableFields = map[string]bool{
	"address":        true,
	"username":       true,
	"balance":        true,
	"u_balance":      true,
	"vote":           true,
	"rate":           true,
	"fees":           true,
	"rewards":        true,
	"producedBlocks": true,
	"missedBlocks":   true,
}

// fieldNames returns every column name in schema order.
func fieldNames() []string {
	names := make([]string, len(schema))
	for i, f := range schema {
		names[i] = f.name
	}
	return names
}

// shadowPairs returns the (confirmed, unconfirmed) column name pairs.
func shadowPairs() [][2]string {
	var pairs [][2]string
	for _, f := range schema {
		if f.shadowed {
			pairs = append(pairs, [2]string{f.name, "u_" + f.name})
		}
	}
	return pairs
}

func encodeBigInt(v *big.Int) (string, error) {
	if v == nil || v.Sign() < 0 {
		return "", errors.WithMessage(ErrTypeMismatch, "negative or nil big integer")
	}
	s := v.String()
	if len(s) > bigIntDigits {
		return "", errors.WithMessage(ErrTypeMismatch, "big integer overflows column width")
	}
	return strings.Repeat("0", bigIntDigits-len(s)) + s, nil
}

func decodeBigInt(raw string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, errors.WithMessagef(ErrTypeMismatch, "malformed stored numeral %q", raw)
	}
	return v, nil
}

func encodeKeyList(keys []string) (string, error) {
	for _, k := range keys {
		b, err := hex.DecodeString(k)
		if err != nil || len(b) != forge.PublicKeyLength {
			return "", errors.WithMessagef(ErrTypeMismatch, "malformed public key %q in list", k)
		}
	}
	return strings.Join(keys, ","), nil
}

func decodeKeyList(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// convertForStorage encodes an in-memory value to its column representation.
// The zero interface encodes the field's schema default.
func convertForStorage(name string, value interface{}) (interface{}, error) {
	f, ok := schemaByName[name]
	if !ok {
		return nil, errors.WithMessagef(ErrTypeMismatch, "unknown field %q", name)
	}
	if value == nil {
		return defaultFor(name), nil
	}
	switch f.kind {
	case kindAddress:
		a, ok := value.(forge.Address)
		if !ok {
			return nil, errors.WithMessagef(ErrTypeMismatch, "%s wants forge.Address", name)
		}
		return string(a), nil
	case kindPublicKey:
		b, ok := value.([]byte)
		if !ok {
			return nil, errors.WithMessagef(ErrTypeMismatch, "%s wants []byte", name)
		}
		if len(b) == 0 {
			return nil, nil
		}
		if len(b) != forge.PublicKeyLength {
			return nil, errors.WithMessagef(ErrTypeMismatch, "%s wants %d bytes", name, forge.PublicKeyLength)
		}
		return hex.EncodeToString(b), nil
	case kindBool:
		v, ok := value.(bool)
		if !ok {
			return nil, errors.WithMessagef(ErrTypeMismatch, "%s wants bool", name)
		}
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case kindString:
		s, ok := value.(string)
		if !ok {
			return nil, errors.WithMessagef(ErrTypeMismatch, "%s wants string", name)
		}
		return s, nil
	case kindBigInt:
		v, ok := value.(*big.Int)
		if !ok {
			return nil, errors.WithMessagef(ErrTypeMismatch, "%s wants *big.Int", name)
		}
		enc, err := encodeBigInt(v)
		if err != nil {
			return nil, errors.WithMessage(err, name)
		}
		return enc, nil
	case kindUint:
		switch v := value.(type) {
		case uint64:
			if v > 1<<62 {
				return nil, errors.WithMessagef(ErrTypeMismatch, "%s out of range", name)
			}
			return int64(v), nil
		case uint32:
			return int64(v), nil
		default:
			return nil, errors.WithMessagef(ErrTypeMismatch, "%s wants unsigned integer", name)
		}
	case kindKeyList:
		keys, ok := value.([]string)
		if !ok {
			return nil, errors.WithMessagef(ErrTypeMismatch, "%s wants []string", name)
		}
		enc, err := encodeKeyList(keys)
		if err != nil {
			return nil, errors.WithMessage(err, name)
		}
		return enc, nil
	}
	return nil, errors.WithMessagef(ErrTypeMismatch, "unhandled kind of %q", name)
}

// defaultFor returns the column representation of a field's default value.
func defaultFor(name string) interface{} {
	f := schemaByName[name]
	switch f.kind {
	case kindBigInt:
		return strings.Repeat("0", bigIntDigits)
	case kindBool, kindUint:
		return int64(0)
	case kindString, kindKeyList:
		return ""
	default: // address, public keys
		return nil
	}
}
