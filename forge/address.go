// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package forge

import (
	"crypto/sha256"
	"encoding/binary"
	"strconv"

	"github.com/pkg/errors"
)

const (
	// PublicKeyLength length of an account public key in bytes.
	PublicKeyLength = 32

	// AddressSuffix marker character terminating every address.
	AddressSuffix = 'F'
)

// ErrInvalidPublicKey returned when a public key is not derivable into an address.
var ErrInvalidPublicKey = errors.New("invalid public key")

// Address canonical account identifier.
// Rendered as a decimal numeral (the first 8 bytes of the key digest,
// little-endian) followed by the suffix marker.
type Address string

// String implements the stringer interface.
func (a Address) String() string {
	return string(a)
}

// Valid performs a syntax-only check: decimal digits within uint64 range
// plus the suffix marker. It does not imply the address has ever been used.
func (a Address) Valid() bool {
	_, err := ParseAddress(string(a))
	return err == nil
}

// AddressFromPublicKey derives the canonical address of a public key.
// Curve membership is assumed pre-checked upstream; only the length is
// verified here.
func AddressFromPublicKey(pub []byte) (Address, error) {
	if len(pub) != PublicKeyLength {
		return "", errors.WithMessagef(ErrInvalidPublicKey, "got %d bytes", len(pub))
	}
	digest := sha256.Sum256(pub)
	n := binary.LittleEndian.Uint64(digest[:8])
	return Address(strconv.FormatUint(n, 10) + string(AddressSuffix)), nil
}

// ParseAddress converts a string presented address into Address type.
func ParseAddress(s string) (Address, error) {
	if len(s) < 2 {
		return "", errors.New("invalid length")
	}
	if s[len(s)-1] != AddressSuffix {
		return "", errors.New("invalid suffix")
	}
	num := s[:len(s)-1]
	if len(num) > 1 && num[0] == '0' {
		return "", errors.New("leading zero")
	}
	if _, err := strconv.ParseUint(num, 10, 64); err != nil {
		return "", errors.New("invalid numeral")
	}
	return Address(s), nil
}
