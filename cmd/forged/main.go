// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/inconshreveable/log15"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/forgechain/forged/accountdb"
	"github.com/forgechain/forged/api"
	"github.com/forgechain/forged/ledger"
	"github.com/forgechain/forged/metrics"
)

var (
	version   string
	gitCommit string
	gitTag    string
	log       = log15.New()
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Forged",
		Usage:     "Account ledger node of the Forgechain network",
		Copyright: "2026 Forgechain",
		Flags: []cli.Flag{
			dataDirFlag,
			apiAddrFlag,
			apiCorsFlag,
			verbosityFlag,
			metricsAddrFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	initLogger(ctx.Int(verbosityFlag.Name))

	dataDir := ctx.String(dataDirFlag.Name)
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return err
	}

	store, err := accountdb.New(filepath.Join(dataDir, "accounts.db"))
	if err != nil {
		return err
	}
	defer store.Close()

	engine, err := ledger.New(store, log15.New("pkg", "ledger"))
	if err != nil {
		return err
	}
	engine.Bind(store)

	if metricsAddr := ctx.String(metricsAddrFlag.Name); metricsAddr != "" {
		metrics.InitializePrometheusMetrics()
		go func() {
			srv := &http.Server{Addr: metricsAddr, Handler: metrics.HTTPHandler()}
			log.Info("metrics service started", "addr", metricsAddr)
			if err := srv.ListenAndServe(); err != http.ErrServerClosed {
				log.Warn("metrics service stopped", "err", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:    ctx.String(apiAddrFlag.Name),
		Handler: api.New(engine, api.Options{AllowedOrigins: ctx.String(apiCorsFlag.Name)}),
	}
	go func() {
		log.Info("API service started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Error("API service stopped", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func initLogger(verbosity int) {
	log15.Root().SetHandler(log15.LvlFilterHandler(log15.Lvl(verbosity), log15.StderrHandler))
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".forged")
	}
	return ""
}
