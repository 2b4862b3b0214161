// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountdb_test

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgechain/forged/accountdb"
	"github.com/forgechain/forged/forge"
)

func openStore(t *testing.T) *accountdb.Store {
	store, err := accountdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func upsert(t *testing.T, store *accountdb.Store, key accountdb.Filter, patch *accountdb.Patch) *accountdb.Account {
	var account *accountdb.Account
	err := store.RunInTransaction(context.Background(), "test", func(tx *accountdb.Tx) error {
		var err error
		account, err = tx.Upsert(key, patch)
		return err
	})
	require.NoError(t, err)
	return account
}

func TestUpsertCreateWithDefaults(t *testing.T) {
	store := openStore(t)

	addr := forge.Address("12345F")
	acc := upsert(t, store, accountdb.ByAddress(addr), accountdb.NewPatch())

	assert.Equal(t, addr, acc.Address)
	assert.Nil(t, acc.PublicKey)
	assert.Zero(t, acc.Balance.Sign())
	assert.Zero(t, acc.UBalance.Sign())
	assert.Zero(t, acc.Vote.Sign())
	assert.False(t, acc.IsDelegate)
	assert.Empty(t, acc.Delegates)
}

func TestUpsertSetAndReadBack(t *testing.T) {
	store := openStore(t)

	addr := forge.Address("777F")
	balance, _ := new(big.Int).SetString("18446744073709551617", 10) // > max uint64
	patch := accountdb.NewPatch().
		Set("balance", balance).
		Set("username", "genesis_delegate").
		Set("isDelegate", true)

	upsert(t, store, accountdb.ByAddress(addr), patch)

	acc, err := store.Get(context.Background(), accountdb.ByAddress(addr))
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Zero(t, balance.Cmp(acc.Balance))
	assert.Equal(t, "genesis_delegate", acc.Username)
	assert.True(t, acc.IsDelegate)
}

func TestUpsertIncrement(t *testing.T) {
	store := openStore(t)
	addr := forge.Address("100F")

	upsert(t, store, accountdb.ByAddress(addr),
		accountdb.NewPatch().Set("balance", big.NewInt(100)))

	acc := upsert(t, store, accountdb.ByAddress(addr),
		accountdb.NewPatch().Inc("balance", big.NewInt(-40)).Inc("producedBlocks", big.NewInt(1)))
	assert.Equal(t, int64(60), acc.Balance.Int64())
	assert.Equal(t, uint64(1), acc.ProducedBlocks)
}

func TestUpsertNegativeBalanceGuard(t *testing.T) {
	store := openStore(t)
	addr := forge.Address("200F")

	upsert(t, store, accountdb.ByAddress(addr),
		accountdb.NewPatch().Set("balance", big.NewInt(10)))

	err := store.RunInTransaction(context.Background(), "test", func(tx *accountdb.Tx) error {
		_, err := tx.Upsert(accountdb.ByAddress(addr),
			accountdb.NewPatch().Inc("balance", big.NewInt(-11)))
		return err
	})
	assert.True(t, errors.Is(err, accountdb.ErrNegativeBalance))

	// stored balance unchanged
	acc, err := store.Get(context.Background(), accountdb.ByAddress(addr))
	require.NoError(t, err)
	assert.Equal(t, int64(10), acc.Balance.Int64())
}

func TestUpsertTypeMismatch(t *testing.T) {
	store := openStore(t)

	err := store.RunInTransaction(context.Background(), "test", func(tx *accountdb.Tx) error {
		_, err := tx.Upsert(accountdb.ByAddress("300F"),
			accountdb.NewPatch().Set("balance", "not a number"))
		return err
	})
	assert.True(t, errors.Is(err, accountdb.ErrTypeMismatch))
}

func TestUpsertMultisigThreshold(t *testing.T) {
	store := openStore(t)

	err := store.RunInTransaction(context.Background(), "test", func(tx *accountdb.Tx) error {
		_, err := tx.Upsert(accountdb.ByAddress("400F"),
			accountdb.NewPatch().Set("multimin", uint32(2)))
		return err
	})
	assert.True(t, errors.Is(err, accountdb.ErrMultisigThreshold))
}

func TestGetAbsentIsNotAnError(t *testing.T) {
	store := openStore(t)

	acc, err := store.Get(context.Background(), accountdb.ByAddress("999F"))
	assert.Nil(t, err)
	assert.Nil(t, acc)

	accs, err := store.GetAll(context.Background(), nil, nil)
	assert.Nil(t, err)
	assert.Empty(t, accs)
}

func TestGetByFilters(t *testing.T) {
	store := openStore(t)

	pub := make([]byte, forge.PublicKeyLength)
	pub[0] = 0xfe
	addr, err := forge.AddressFromPublicKey(pub)
	require.NoError(t, err)

	upsert(t, store, accountdb.ByAddress(addr),
		accountdb.NewPatch().
			SetPublicKey(pub).
			Set("username", "validator_one").
			Set("isDelegate", true))

	byPub, err := store.Get(context.Background(), accountdb.ByPublicKey(pub))
	require.NoError(t, err)
	require.NotNil(t, byPub)
	assert.Equal(t, addr, byPub.Address)
	assert.Equal(t, pub, byPub.PublicKey)

	byBoth, err := store.Get(context.Background(), accountdb.ByAddressAndPublicKey{Address: addr, PublicKey: pub})
	require.NoError(t, err)
	require.NotNil(t, byBoth)

	mismatch, err := store.Get(context.Background(), accountdb.ByAddressAndPublicKey{Address: "1F", PublicKey: pub})
	require.NoError(t, err)
	assert.Nil(t, mismatch)

	byName, err := store.Get(context.Background(), accountdb.ByUsername("validator_one"))
	require.NoError(t, err)
	require.NotNil(t, byName)

	onlyDelegates, err := store.GetAll(context.Background(), accountdb.DelegatesOnly{}, nil)
	require.NoError(t, err)
	assert.Len(t, onlyDelegates, 1)
}

func seedBalances(t *testing.T, store *accountdb.Store, n int) []*big.Int {
	base, _ := new(big.Int).SetString("9007199254740992", 10) // 2^53, the float53 cliff
	balances := make([]*big.Int, 0, n)
	for i := 0; i < n; i++ {
		// adjacent values differ by exactly one base unit; approximate
		// comparison cannot order them
		balance := new(big.Int).Add(base, big.NewInt(int64(i)))
		balances = append(balances, balance)
		upsert(t, store, accountdb.ByAddress(forge.Address(fmt.Sprintf("%d0F", i+1))),
			accountdb.NewPatch().Set("balance", balance))
	}
	return balances
}

func TestGetAllSortDescExact(t *testing.T) {
	store := openStore(t)
	seedBalances(t, store, 25)

	accs, err := store.GetAll(context.Background(), nil, &accountdb.Options{
		SortBy: "balance",
		Order:  accountdb.DESC,
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, accs, 10)
	for i := 0; i+1 < len(accs); i++ {
		assert.True(t, accs[i].Balance.Cmp(accs[i+1].Balance) >= 0, "position %d", i)
	}
}

func TestGetAllPaginationComplement(t *testing.T) {
	store := openStore(t)
	seedBalances(t, store, 20)

	page := func(offset uint64) []*accountdb.Account {
		accs, err := store.GetAll(context.Background(), nil, &accountdb.Options{
			SortBy: "balance",
			Order:  accountdb.DESC,
			Limit:  10,
			Offset: offset,
		})
		require.NoError(t, err)
		return accs
	}

	first, second := page(0), page(10)
	require.Len(t, first, 10)
	require.Len(t, second, 10)

	seen := make(map[forge.Address]bool)
	for _, acc := range append(first, second...) {
		assert.False(t, seen[acc.Address], "duplicate %s across pages", acc.Address)
		seen[acc.Address] = true
	}
	assert.Len(t, seen, 20)
	// the two pages together are the whole sorted sequence, in order
	assert.True(t, first[9].Balance.Cmp(second[0].Balance) >= 0)
}

func TestGetAllInvalidSortField(t *testing.T) {
	store := openStore(t)

	_, err := store.GetAll(context.Background(), nil, &accountdb.Options{SortBy: "secretField"})
	assert.True(t, errors.Is(err, accountdb.ErrInvalidSortField))
}

func TestBestHeight(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	h, err := store.BestHeight(ctx)
	require.NoError(t, err)
	assert.Zero(t, h)

	err = store.RunInTransaction(ctx, "block:commit", func(tx *accountdb.Tx) error {
		return tx.SetHeight(42)
	})
	require.NoError(t, err)

	h, err = store.BestHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), h)
}
