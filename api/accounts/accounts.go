// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"encoding/hex"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/forgechain/forged/accountdb"
	"github.com/forgechain/forged/api/utils"
	"github.com/forgechain/forged/forge"
	"github.com/forgechain/forged/ledger"
)

// Accounts is the externally callable query surface over the ledger engine.
type Accounts struct {
	engine *ledger.Engine
}

func New(engine *ledger.Engine) *Accounts {
	return &Accounts{engine}
}

func (a *Accounts) handleGetAccounts(w http.ResponseWriter, req *http.Request) error {
	query := req.URL.Query()

	filter, err := parseFilter(query)
	if err != nil {
		return utils.BadRequest(err)
	}
	opts, err := parseOptions(query)
	if err != nil {
		return utils.BadRequest(err)
	}

	accs, err := a.engine.GetAccounts(req.Context(), filter, opts)
	if err != nil {
		if errors.Is(err, accountdb.ErrInvalidSortField) || errors.Is(err, forge.ErrInvalidPublicKey) {
			return utils.BadRequest(err)
		}
		return err
	}
	return utils.WriteJSON(w, ConvertAccounts(accs))
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := forge.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	acc, err := a.engine.GetAccount(req.Context(), accountdb.ByAddress(addr))
	if err != nil {
		return err
	}
	if acc == nil {
		return utils.NotFound(errors.New("account not found"))
	}
	return utils.WriteJSON(w, ConvertAccount(acc))
}

// handleGetTop ranks accounts by confirmed balance, richest first.
func (a *Accounts) handleGetTop(w http.ResponseWriter, req *http.Request) error {
	opts, err := parseOptions(req.URL.Query())
	if err != nil {
		return utils.BadRequest(err)
	}
	opts.SortBy = "balance"
	opts.Order = accountdb.DESC

	accs, err := a.engine.GetAccounts(req.Context(), nil, opts)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, ConvertAccounts(accs))
}

func parseFilter(query map[string][]string) (accountdb.Filter, error) {
	if addr := first(query, "address"); addr != "" {
		parsed, err := forge.ParseAddress(addr)
		if err != nil {
			return nil, errors.WithMessage(err, "address")
		}
		if pk := first(query, "publicKey"); pk != "" {
			pub, err := hex.DecodeString(pk)
			if err != nil {
				return nil, errors.WithMessage(err, "publicKey")
			}
			return accountdb.ByAddressAndPublicKey{Address: parsed, PublicKey: pub}, nil
		}
		return accountdb.ByAddress(parsed), nil
	}
	if pk := first(query, "publicKey"); pk != "" {
		pub, err := hex.DecodeString(pk)
		if err != nil {
			return nil, errors.WithMessage(err, "publicKey")
		}
		return accountdb.ByPublicKey(pub), nil
	}
	if username := first(query, "username"); username != "" {
		return accountdb.ByUsername(username), nil
	}
	if first(query, "isDelegate") == "true" || first(query, "isDelegate") == "1" {
		return accountdb.DelegatesOnly{}, nil
	}
	return nil, nil
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccounts))
	sub.Path("/top").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(a.handleGetTop))
	sub.Path("/{address}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))
}
