// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger_test

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math/big"
	"testing"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgechain/forged/accountdb"
	"github.com/forgechain/forged/forge"
	"github.com/forgechain/forged/ledger"
)

func newEngine(t *testing.T) (*ledger.Engine, *accountdb.Store) {
	store, err := accountdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := log15.New("pkg", "ledger")
	log.SetHandler(log15.DiscardHandler())

	engine, err := ledger.New(store, log)
	require.NoError(t, err)
	return engine, store
}

func testKey(seed string) []byte {
	digest := sha256.Sum256([]byte(seed))
	return digest[:]
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := ledger.New(nil, log15.New())
	assert.Error(t, err)

	store, err := accountdb.NewMem()
	require.NoError(t, err)
	defer store.Close()
	_, err = ledger.New(store, nil)
	assert.Error(t, err)
}

func TestSetAccountAndGetRoundTrip(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	pub := testKey("round-trip")
	addr, err := engine.GenerateAddressByPublicKey(pub)
	require.NoError(t, err)

	created, err := engine.SetAccountAndGet(ctx, accountdb.NewPatch().
		SetPublicKey(pub).
		Set("balance", big.NewInt(12345)).
		Set("secondSignature", true), nil)
	require.NoError(t, err)
	assert.Equal(t, addr, created.Address)

	got, err := engine.GetAccount(ctx, accountdb.ByAddress(addr))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, pub, got.PublicKey)
	assert.Equal(t, int64(12345), got.Balance.Int64())
	assert.True(t, got.SecondSignature)
	// omitted fields hold schema defaults
	assert.Zero(t, got.Vote.Sign())
	assert.False(t, got.IsDelegate)
}

func TestSetAccountAndGetMissingIdentity(t *testing.T) {
	engine, store := newEngine(t)

	_, err := engine.SetAccountAndGet(context.Background(), accountdb.NewPatch(), nil)
	assert.True(t, errors.Is(err, forge.ErrInvalidPublicKey))

	// and no row was created
	accs, err := store.GetAll(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, accs)
}

func TestSetAccountAndGetAddressOnly(t *testing.T) {
	engine, _ := newEngine(t)

	acc, err := engine.SetAccountAndGet(context.Background(), accountdb.NewPatch().
		SetAddress("54321F").
		Set("balance", big.NewInt(5)), nil)
	require.NoError(t, err)
	assert.Equal(t, forge.Address("54321F"), acc.Address)
	assert.Nil(t, acc.PublicKey)
	assert.Equal(t, int64(5), acc.Balance.Int64())
}

func TestSetAccountAndGetDerivesAddress(t *testing.T) {
	engine, _ := newEngine(t)

	pub := testKey("derive")
	acc, err := engine.SetAccountAndGet(context.Background(),
		accountdb.NewPatch().SetPublicKey(pub), nil)
	require.NoError(t, err)

	derived, _ := forge.AddressFromPublicKey(pub)
	assert.Equal(t, derived, acc.Address)
}

func TestSetAccountAndGetMismatch(t *testing.T) {
	engine, store := newEngine(t)

	pub := testKey("mismatch")
	_, err := engine.SetAccountAndGet(context.Background(), accountdb.NewPatch().
		SetAddress("1F").
		SetPublicKey(pub), nil)
	assert.True(t, errors.Is(err, ledger.ErrAddressMismatch))

	accs, err := store.GetAll(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, accs)
}

func TestSetAccountAndGetForeignKeyOwner(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()

	pub := testKey("owner")
	addr, _ := forge.AddressFromPublicKey(pub)

	// a row that already owns the key under a different address; reachable
	// only through the store directly, the engine refuses to create such rows
	err := store.RunInTransaction(ctx, "fixture", func(tx *accountdb.Tx) error {
		_, err := tx.Upsert(accountdb.ByAddress("99F"),
			accountdb.NewPatch().SetPublicKey(pub))
		return err
	})
	require.NoError(t, err)

	_, err = engine.SetAccountAndGet(ctx, accountdb.NewPatch().SetPublicKey(pub), nil)
	assert.True(t, errors.Is(err, ledger.ErrAddressMismatch))

	gone, err := store.Get(ctx, accountdb.ByAddress(addr))
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestSetAccountAndGetInvalidKey(t *testing.T) {
	engine, _ := newEngine(t)

	_, err := engine.SetAccountAndGet(context.Background(),
		accountdb.NewPatch().SetPublicKey([]byte("short")), nil)
	assert.True(t, errors.Is(err, forge.ErrInvalidPublicKey))

	_, err = engine.GenerateAddressByPublicKey(nil)
	assert.True(t, errors.Is(err, forge.ErrInvalidPublicKey))
}

func TestGetAccountRewritesPublicKeyFilter(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	pub := testKey("rewrite")
	_, err := engine.SetAccountAndGet(ctx, accountdb.NewPatch().SetPublicKey(pub), nil)
	require.NoError(t, err)

	acc, err := engine.GetAccount(ctx, accountdb.ByPublicKey(pub))
	require.NoError(t, err)
	require.NotNil(t, acc)

	_, err = engine.GetAccount(ctx, accountdb.ByPublicKey([]byte("bad")))
	assert.True(t, errors.Is(err, forge.ErrInvalidPublicKey))
}

func TestSetAccountAndGetTransactionTagging(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()

	var records []struct {
		tag   string
		depth int
	}
	store.SetTxHook(func(tag string, depth int) {
		records = append(records, struct {
			tag   string
			depth int
		}{tag, depth})
	})

	// outside any caller transaction: default tag, depth 0
	_, err := engine.SetAccountAndGet(ctx, accountdb.NewPatch().SetAddress("10F"), nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "accounts:set", records[0].tag)
	assert.Equal(t, 0, records[0].depth)

	// inside a caller-named transaction: joins it, no extra scope recorded
	records = records[:0]
	err = store.RunInTransaction(ctx, "block:process", func(tx *accountdb.Tx) error {
		_, err := engine.SetAccountAndGet(ctx, accountdb.NewPatch().SetAddress("20F"), tx)
		return err
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "block:process", records[0].tag)
	assert.Equal(t, 0, records[0].depth)
}

func TestSetAccountAndGetJoinedRollback(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()

	err := store.RunInTransaction(ctx, "block:process", func(tx *accountdb.Tx) error {
		if _, err := engine.SetAccountAndGet(ctx,
			accountdb.NewPatch().SetAddress("30F").Set("balance", big.NewInt(9)), tx); err != nil {
			return err
		}
		return errors.New("block rejected")
	})
	assert.Error(t, err)

	acc, err := store.Get(ctx, accountdb.ByAddress("30F"))
	require.NoError(t, err)
	assert.Nil(t, acc)
}

func TestMergeAccountAndGet(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	addr := forge.Address("40F")
	_, err := engine.SetAccountAndGet(ctx, accountdb.NewPatch().
		SetAddress(addr).
		Set("balance", big.NewInt(1000)).
		Set("u_balance", big.NewInt(1000)), nil)
	require.NoError(t, err)

	delegate := fmt.Sprintf("%x", testKey("delegate-key"))
	diff := &ledger.Diff{
		Balance:       big.NewInt(-250),
		UBalance:      big.NewInt(-250),
		AddDelegates:  []string{delegate},
		AddUDelegates: []string{delegate},
		BlockID:       "block-7",
	}
	acc, err := engine.MergeAccountAndGet(ctx, addr, diff, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(750), acc.Balance.Int64())
	assert.Equal(t, int64(750), acc.UBalance.Int64())
	assert.Equal(t, []string{delegate}, acc.Delegates)
	assert.Equal(t, "block-7", acc.BlockID)

	// undo restores the numeric fields and the delegate sets
	acc, err = engine.MergeAccountAndGet(ctx, addr, diff.Negated(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), acc.Balance.Int64())
	assert.Empty(t, acc.Delegates)
}

func TestMergeAccountAndGetGuards(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	_, err := engine.MergeAccountAndGet(ctx, "50F", &ledger.Diff{Balance: big.NewInt(1)}, nil)
	assert.True(t, errors.Is(err, ledger.ErrAccountNotFound))

	addr := forge.Address("60F")
	_, err = engine.SetAccountAndGet(ctx, accountdb.NewPatch().
		SetAddress(addr).Set("balance", big.NewInt(5)), nil)
	require.NoError(t, err)

	_, err = engine.MergeAccountAndGet(ctx, addr, &ledger.Diff{Balance: big.NewInt(-6)}, nil)
	assert.True(t, errors.Is(err, accountdb.ErrNegativeBalance))

	acc, err := engine.GetAccount(ctx, accountdb.ByAddress(addr))
	require.NoError(t, err)
	assert.Equal(t, int64(5), acc.Balance.Int64())

	_, err = engine.MergeAccountAndGet(ctx, addr, &ledger.Diff{
		RemoveDelegates: []string{fmt.Sprintf("%x", testKey("never-voted"))},
	}, nil)
	assert.Error(t, err)
}

func TestConfirmAndRevertPending(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()

	addr := forge.Address("70F")
	_, err := engine.SetAccountAndGet(ctx, accountdb.NewPatch().
		SetAddress(addr).
		Set("balance", big.NewInt(100)).
		Set("u_balance", big.NewInt(40)).
		Set("u_isDelegate", true).
		Set("u_username", "fresh_delegate"), nil)
	require.NoError(t, err)

	// confirm: unconfirmed becomes the new confirmed state
	err = store.RunInTransaction(ctx, "block:commit", func(tx *accountdb.Tx) error {
		acc, err := engine.ConfirmPending(addr, tx)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(40), acc.Balance.Int64())
		assert.True(t, acc.IsDelegate)
		assert.Equal(t, "fresh_delegate", acc.Username)
		return nil
	})
	require.NoError(t, err)

	// now dirty the unconfirmed side and revert it
	_, err = engine.SetAccountAndGet(ctx, accountdb.NewPatch().
		SetAddress(addr).Set("u_balance", big.NewInt(1)), nil)
	require.NoError(t, err)

	err = store.RunInTransaction(ctx, "block:rollback", func(tx *accountdb.Tx) error {
		acc, err := engine.RevertPending(addr, tx)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(40), acc.UBalance.Int64())
		assert.True(t, acc.UIsDelegate)
		return nil
	})
	require.NoError(t, err)
}

func TestDelegatesRanking(t *testing.T) {
	engine, store := newEngine(t)
	ctx := context.Background()

	_, _, err := engine.Delegates(ctx, 10, 0)
	assert.True(t, errors.Is(err, ledger.ErrNotBound))

	engine.Bind(store)

	for i := 0; i < 5; i++ {
		_, err := engine.SetAccountAndGet(ctx, accountdb.NewPatch().
			SetAddress(forge.Address(fmt.Sprintf("%d1F", i+1))).
			Set("isDelegate", true).
			Set("vote", big.NewInt(int64(100*(i+1)))), nil)
		require.NoError(t, err)
	}
	err = store.RunInTransaction(ctx, "block:commit", func(tx *accountdb.Tx) error {
		return tx.SetHeight(777)
	})
	require.NoError(t, err)

	delegates, height, err := engine.Delegates(ctx, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(777), height)
	require.Len(t, delegates, 3)
	// highest vote excluded by offset 1; ranks continue from it
	assert.Equal(t, int64(400), delegates[0].Vote.Int64())
	assert.Equal(t, uint64(2), delegates[0].Rank)
	assert.Equal(t, uint64(4), delegates[2].Rank)
}
