// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountdb

import (
	"math/big"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/forgechain/forged/forge"
)

func TestFieldNames(t *testing.T) {
	names := fieldNames()
	assert.Equal(t, len(schema), len(names))
	assert.Equal(t, "address", names[0])

	// every shadowed field has its unconfirmed column in the schema
	for _, pair := range shadowPairs() {
		assert.True(t, strings.HasPrefix(pair[1], "u_"))
		_, ok := schemaByName[pair[1]]
		assert.True(t, ok, pair[1])
		assert.Equal(t, schemaByName[pair[0]].kind, schemaByName[pair[1]].kind, pair[0])
	}
}

func TestBigIntRoundTrip(t *testing.T) {
	// magnitudes beyond float64's 53-bit mantissa must survive exactly
	v, _ := new(big.Int).SetString("92233720368547758089", 10)
	enc, err := encodeBigInt(v)
	assert.Nil(t, err)
	assert.Equal(t, bigIntDigits, len(enc))

	dec, err := decodeBigInt(enc)
	assert.Nil(t, err)
	assert.Zero(t, v.Cmp(dec))
}

func TestBigIntEncodeRejects(t *testing.T) {
	_, err := encodeBigInt(big.NewInt(-1))
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	huge := new(big.Int).Exp(big.NewInt(10), big.NewInt(bigIntDigits), nil)
	_, err = encodeBigInt(huge)
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	_, err = encodeBigInt(nil)
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestConvertForStorage(t *testing.T) {
	raw, err := convertForStorage("balance", big.NewInt(42))
	assert.Nil(t, err)
	assert.Equal(t, strings.Repeat("0", bigIntDigits-2)+"42", raw)

	raw, err = convertForStorage("isDelegate", true)
	assert.Nil(t, err)
	assert.Equal(t, int64(1), raw)

	raw, err = convertForStorage("publicKey", []byte(nil))
	assert.Nil(t, err)
	assert.Nil(t, raw)

	// defaults when no value given
	assert.Equal(t, strings.Repeat("0", bigIntDigits), convertMust(t, "vote", nil))
	assert.Equal(t, int64(0), convertMust(t, "multimin", nil))
}

func TestConvertForStorageMismatch(t *testing.T) {
	cases := []struct {
		name  string
		value interface{}
	}{
		{"balance", "100"},
		{"balance", 100},
		{"balance", big.NewInt(-5)},
		{"isDelegate", int64(1)},
		{"username", 7},
		{"multimin", int64(2)},
		{"delegates", "abc"},
		{"delegates", []string{"zz"}},
		{"nosuchfield", "x"},
	}
	for _, tt := range cases {
		_, err := convertForStorage(tt.name, tt.value)
		assert.True(t, errors.Is(err, ErrTypeMismatch), "%s=%v", tt.name, tt.value)
	}
}

func TestKeyListRoundTrip(t *testing.T) {
	keys := []string{
		strings.Repeat("ab", forge.PublicKeyLength),
		strings.Repeat("cd", forge.PublicKeyLength),
	}
	enc, err := encodeKeyList(keys)
	assert.Nil(t, err)
	assert.Equal(t, keys, decodeKeyList(enc))

	assert.Nil(t, decodeKeyList(""))
}

func convertMust(t *testing.T, name string, value interface{}) interface{} {
	raw, err := convertForStorage(name, value)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}
