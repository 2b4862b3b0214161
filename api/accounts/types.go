// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/forgechain/forged/accountdb"
)

// Account is the JSON projection of an account. Raw storage encodings stay
// internal; big integers render as decimal strings so no reader is tempted
// to parse them as floats.
type Account struct {
	Address            string   `json:"address"`
	PublicKey          string   `json:"publicKey,omitempty"`
	SecondPublicKey    string   `json:"secondPublicKey,omitempty"`
	Balance            string   `json:"balance"`
	UnconfirmedBalance string   `json:"unconfirmedBalance"`
	Vote               string   `json:"vote"`
	Fees               string   `json:"fees"`
	Rewards            string   `json:"rewards"`
	Username           string   `json:"username,omitempty"`
	SecondSignature    bool     `json:"secondSignature"`
	IsDelegate         bool     `json:"isDelegate"`
	Delegates          []string `json:"delegates,omitempty"`
	Multisignatures    []string `json:"multisignatures,omitempty"`
	Multimin           uint32   `json:"multimin,omitempty"`
	Multilifetime      uint32   `json:"multilifetime,omitempty"`
	Rate               uint64   `json:"rate,omitempty"`
	ProducedBlocks     uint64   `json:"producedBlocks"`
	MissedBlocks       uint64   `json:"missedBlocks"`
	Rank               uint64   `json:"rank,omitempty"`
}

// ConvertAccount projects a stored account into its response shape.
func ConvertAccount(acc *accountdb.Account) *Account {
	return &Account{
		Address:            string(acc.Address),
		PublicKey:          hex.EncodeToString(acc.PublicKey),
		SecondPublicKey:    hex.EncodeToString(acc.SecondPublicKey),
		Balance:            acc.Balance.String(),
		UnconfirmedBalance: acc.UBalance.String(),
		Vote:               acc.Vote.String(),
		Fees:               acc.Fees.String(),
		Rewards:            acc.Rewards.String(),
		Username:           acc.Username,
		SecondSignature:    acc.SecondSignature,
		IsDelegate:         acc.IsDelegate,
		Delegates:          acc.Delegates,
		Multisignatures:    acc.Multisignatures,
		Multimin:           acc.Multimin,
		Multilifetime:      acc.Multilifetime,
		Rate:               acc.Rate,
		ProducedBlocks:     acc.ProducedBlocks,
		MissedBlocks:       acc.MissedBlocks,
		Rank:               acc.Rank,
	}
}

// ConvertAccounts projects a listing, never returning nil.
func ConvertAccounts(accs []*accountdb.Account) []*Account {
	converted := make([]*Account, 0, len(accs))
	for _, acc := range accs {
		converted = append(converted, ConvertAccount(acc))
	}
	return converted
}

// parseOptions translates sort/limit/offset query parameters into listing
// options. sort is "field:asc|desc"; limit and offset default to none.
func parseOptions(query map[string][]string) (*accountdb.Options, error) {
	opts := &accountdb.Options{}
	if sort := first(query, "sort"); sort != "" {
		field, order, err := parseSortParam(sort)
		if err != nil {
			return nil, err
		}
		opts.SortBy = field
		opts.Order = order
	}
	if limit := first(query, "limit"); limit != "" {
		n, err := strconv.ParseUint(limit, 10, 64)
		if err != nil {
			return nil, errors.WithMessage(err, "limit")
		}
		opts.Limit = n
	}
	if offset := first(query, "offset"); offset != "" {
		n, err := strconv.ParseUint(offset, 10, 64)
		if err != nil {
			return nil, errors.WithMessage(err, "offset")
		}
		opts.Offset = n
	}
	return opts, nil
}

func parseSortParam(s string) (string, accountdb.Order, error) {
	field := s
	order := accountdb.ASC
	if i := strings.IndexByte(s, ':'); i >= 0 {
		field = s[:i]
		switch s[i+1:] {
		case "asc":
			order = accountdb.ASC
		case "desc":
			order = accountdb.DESC
		default:
			return "", "", errors.Errorf("unknown sort order %q", s[i+1:])
		}
	}
	if field == "" {
		return "", "", errors.New("empty sort field")
	}
	return field, order, nil
}

func first(query map[string][]string, key string) string {
	if vals := query[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}
