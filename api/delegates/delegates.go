// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegates

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/forgechain/forged/api/accounts"
	"github.com/forgechain/forged/api/utils"
	"github.com/forgechain/forged/ledger"
)

// defaultLimit matches the active delegate round size.
const defaultLimit = 101

// Delegates serves the ranked delegate listing.
type Delegates struct {
	engine *ledger.Engine
}

func New(engine *ledger.Engine) *Delegates {
	return &Delegates{engine}
}

// Listing is the response shape: delegates in rank order plus the chain
// height the ranking was read at.
type Listing struct {
	Delegates []*accounts.Account `json:"delegates"`
	Height    uint64              `json:"height"`
}

func (d *Delegates) handleGetDelegates(w http.ResponseWriter, req *http.Request) error {
	query := req.URL.Query()
	limit := uint64(defaultLimit)
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "limit"))
		}
		limit = n
	}
	var offset uint64
	if raw := query.Get("offset"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "offset"))
		}
		offset = n
	}

	delegates, height, err := d.engine.Delegates(req.Context(), limit, offset)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Listing{
		Delegates: accounts.ConvertAccounts(delegates),
		Height:    height,
	})
}

func (d *Delegates) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(d.handleGetDelegates))
}
