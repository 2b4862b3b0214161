// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/forgechain/forged/api/accounts"
	"github.com/forgechain/forged/api/delegates"
	"github.com/forgechain/forged/ledger"
)

type Options struct {
	AllowedOrigins string
}

// New returns the api router.
func New(engine *ledger.Engine, opts Options) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.TrimSpace(o)
	}

	router := mux.NewRouter()
	accounts.New(engine).Mount(router, "/accounts")
	delegates.New(engine).Mount(router, "/delegates")

	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(router).ServeHTTP
}
