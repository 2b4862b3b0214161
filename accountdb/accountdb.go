// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountdb

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/forgechain/forged/forge"
)

var (
	// ErrTypeMismatch a value cannot be losslessly converted per the field schema.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrNegativeBalance an increment would drive a non-negative field below zero.
	ErrNegativeBalance = errors.New("negative balance")
	// ErrInvalidSortField an unknown field was requested for ordering.
	ErrInvalidSortField = errors.New("invalid sort field")
	// ErrMultisigThreshold multimin exceeds the cosigner set size.
	ErrMultisigThreshold = errors.New("multisig threshold exceeds cosigner count")
)

// busy is the time to wait for a sqlite lock held by another process, in ms.
const busy = 5000

var memSeq atomic.Uint32

// Store owns the durable table of accounts.
type Store struct {
	path          string
	db            *sql.DB
	driverVersion string
	txHook        func(tag string, depth int)
}

// New creates or opens the account db at the given path.
func New(path string) (store *Store, err error) {
	db, err := sql.Open("sqlite3", uri(path))
	if err != nil {
		return nil, err
	}
	defer func() {
		if store == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(accountsTableScheme + chainMetaTableScheme); err != nil {
		return nil, err
	}

	driverVer, _, _ := sqlite3.Version()
	return &Store{
		path:          path,
		db:            db,
		driverVersion: driverVer,
	}, nil
}

// NewMem creates an account db in ram.
func NewMem() (*Store, error) {
	return New(fmt.Sprintf("accounts-mem-%d?mode=memory&cache=shared", memSeq.Add(1)))
}

func uri(path string) string {
	sep := "?"
	if strings.ContainsRune(path, '?') {
		sep = "&"
	}
	return fmt.Sprintf("file:%s%s_busy_timeout=%d&_txlock=immediate", path, sep, busy)
}

// Close closes the account db.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the db path.
func (s *Store) Path() string {
	return s.path
}

// SetTxHook installs an observer called on every transaction begin and
// nesting with the recorded tag and depth. Instrumentation only.
func (s *Store) SetTxHook(fn func(tag string, depth int)) {
	s.txHook = fn
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Get returns the single account matching the filter, or nil when absent.
func (s *Store) Get(ctx context.Context, filter Filter) (*Account, error) {
	return get(ctx, s.db, filter)
}

// GetAll returns accounts matching the filter, sorted and paginated per
// opts. A nil filter matches all rows; an empty result is not an error.
func (s *Store) GetAll(ctx context.Context, filter Filter, opts *Options) ([]*Account, error) {
	return getAll(ctx, s.db, filter, opts)
}

func get(ctx context.Context, q querier, filter Filter) (*Account, error) {
	accounts, err := getAll(ctx, q, filter, &Options{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return accounts[0], nil
}

func getAll(ctx context.Context, q querier, filter Filter, opts *Options) ([]*Account, error) {
	var args []interface{}
	stmt := "SELECT " + strings.Join(fieldNames(), ",") + " FROM accounts WHERE 1"
	if filter != nil {
		cond, condArgs := filter.clause()
		stmt += cond
		args = append(args, condArgs...)
	}
	if opts != nil && opts.SortBy != "" {
		if !sortableFields[opts.SortBy] {
			return nil, errors.WithMessagef(ErrInvalidSortField, "%q", opts.SortBy)
		}
		if opts.Order == DESC {
			stmt += " ORDER BY " + opts.SortBy + " DESC, address ASC "
		} else {
			stmt += " ORDER BY " + opts.SortBy + " ASC, address ASC "
		}
	}
	if opts != nil {
		if opts.Limit > 0 {
			stmt += " limit ?, ? "
			args = append(args, opts.Offset, opts.Limit)
		} else if opts.Offset > 0 {
			stmt += " limit ?, -1 "
			args = append(args, opts.Offset)
		}
	}
	metricsHandleQuery(opts)
	return queryAccounts(ctx, q, stmt, args...)
}

func queryAccounts(ctx context.Context, q querier, stmt string, args ...interface{}) ([]*Account, error) {
	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*Account
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func scanAccount(rows *sql.Rows) (*Account, error) {
	var (
		address                    string
		publicKey, secondPublicKey sql.NullString
		secondSig, uSecondSig      int64
		isDelegate, uIsDelegate    int64
		nameExist, uNameExist      int64
		username, uUsername        sql.NullString
		balance, uBalance          string
		vote                       string
		rate                       int64
		fees, rewards              string
		produced, missed           int64
		blockID                    sql.NullString
		delegates, uDelegates      sql.NullString
		multisigs, uMultisigs      sql.NullString
		multimin, uMultimin        int64
		multilifetime, uLifetime   int64
	)
	if err := rows.Scan(
		&address,
		&publicKey,
		&secondPublicKey,
		&secondSig,
		&uSecondSig,
		&isDelegate,
		&uIsDelegate,
		&nameExist,
		&uNameExist,
		&username,
		&uUsername,
		&balance,
		&uBalance,
		&vote,
		&rate,
		&fees,
		&rewards,
		&produced,
		&missed,
		&blockID,
		&delegates,
		&uDelegates,
		&multisigs,
		&uMultisigs,
		&multimin,
		&uMultimin,
		&multilifetime,
		&uLifetime,
	); err != nil {
		return nil, err
	}

	acc := &Account{
		Address:          forge.Address(address),
		SecondSignature:  secondSig != 0,
		USecondSignature: uSecondSig != 0,
		IsDelegate:       isDelegate != 0,
		UIsDelegate:      uIsDelegate != 0,
		NameExist:        nameExist != 0,
		UNameExist:       uNameExist != 0,
		Username:         username.String,
		UUsername:        uUsername.String,
		Rate:             uint64(rate),
		ProducedBlocks:   uint64(produced),
		MissedBlocks:     uint64(missed),
		BlockID:          blockID.String,
		Delegates:        decodeKeyList(delegates.String),
		UDelegates:       decodeKeyList(uDelegates.String),
		Multisignatures:  decodeKeyList(multisigs.String),
		UMultisignatures: decodeKeyList(uMultisigs.String),
		Multimin:         uint32(multimin),
		UMultimin:        uint32(uMultimin),
		Multilifetime:    uint32(multilifetime),
		UMultilifetime:   uint32(uLifetime),
	}
	var err error
	if acc.PublicKey, err = decodeNullableKey(publicKey); err != nil {
		return nil, err
	}
	if acc.SecondPublicKey, err = decodeNullableKey(secondPublicKey); err != nil {
		return nil, err
	}
	if acc.Balance, err = decodeBigInt(balance); err != nil {
		return nil, err
	}
	if acc.UBalance, err = decodeBigInt(uBalance); err != nil {
		return nil, err
	}
	if acc.Vote, err = decodeBigInt(vote); err != nil {
		return nil, err
	}
	if acc.Fees, err = decodeBigInt(fees); err != nil {
		return nil, err
	}
	if acc.Rewards, err = decodeBigInt(rewards); err != nil {
		return nil, err
	}
	return acc, nil
}

func decodeNullableKey(raw sql.NullString) ([]byte, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(raw.String)
	if err != nil {
		return nil, errors.WithMessagef(ErrTypeMismatch, "malformed stored public key %q", raw.String)
	}
	return b, nil
}

// BestHeight returns the best chain height recorded by the block
// processor, zero before any block has been confirmed.
func (s *Store) BestHeight(ctx context.Context) (uint64, error) {
	row := s.db.QueryRowContext(ctx, "SELECT v FROM chain_meta WHERE k = 'height'")
	var raw string
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return strconv.ParseUint(raw, 10, 64)
}

// SetHeight records the best chain height inside the caller's transaction.
func (tx *Tx) SetHeight(h uint64) error {
	_, err := tx.sqlTx.ExecContext(tx.ctx,
		"INSERT OR REPLACE INTO chain_meta(k, v) VALUES ('height', ?)",
		strconv.FormatUint(h, 10))
	return err
}
