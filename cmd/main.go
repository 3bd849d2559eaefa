// Command vaultframe runs the vault frame server: a button-navigated,
// server-rendered UI for depositing into and withdrawing from yield-bearing
// vaults, driven by stateless frame round-trips.
//
// Usage:
//
//	vaultframe --config config.yaml
//	vaultframe --setup (interactive config generation)
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/vadiminshakov/vaultframe/config"
	"github.com/vadiminshakov/vaultframe/dashboard"
	"github.com/vadiminshakov/vaultframe/internal/chain"
	"github.com/vadiminshakov/vaultframe/internal/engine"
	"github.com/vadiminshakov/vaultframe/internal/frame"
	"github.com/vadiminshakov/vaultframe/internal/setup"
	"github.com/vadiminshakov/vaultframe/internal/storage/journal"
	"github.com/vadiminshakov/vaultframe/internal/storage/sessions"
)

func main() {
	runSetup := flag.Bool("setup", false, "launch the interactive config wizard")

	cfg, err := config.Get()
	if *runSetup {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jrnl, err := journal.NewWALStore(cfg.JournalDir)
	if err != nil {
		logger.Fatal("init transition journal", zap.Error(err))
	}
	defer jrnl.Close()

	var runtimes []*frame.VaultRuntime
	for _, vc := range cfg.Vaults {
		client, err := ethclient.DialContext(ctx, vc.RPCURL)
		if err != nil {
			logger.Fatal("dial rpc", zap.String("vault", vc.Vault.ID), zap.Error(err))
		}

		oracle, err := chain.NewOracle(client, vc.Vault)
		if err != nil {
			logger.Fatal("init oracle", zap.String("vault", vc.Vault.ID), zap.Error(err))
		}

		store, err := sessions.NewStore(cfg.SessionDir, vc.Vault.ID)
		if err != nil {
			logger.Fatal("init session store", zap.String("vault", vc.Vault.ID), zap.Error(err))
		}

		runtimes = append(runtimes, &frame.VaultRuntime{
			Vault:    vc.Vault,
			Engine:   engine.New(vc.Vault),
			Sessions: store,
			Oracle:   oracle,
			Builder:  chain.NewTxBuilder(vc.Vault),
		})

		logger.Info("vault configured",
			zap.String("vault", vc.Vault.ID),
			zap.Uint64("chain_id", vc.Vault.ChainID),
			zap.String("address", vc.Vault.Address))
	}

	server, err := frame.NewServer(cfg.Listen, cfg.BaseURL, runtimes, jrnl, logger)
	if err != nil {
		logger.Fatal("init frame server", zap.Error(err))
	}

	if cfg.DashboardListen != "" {
		dash := dashboard.NewServer(cfg.DashboardListen, jrnl, logger.With(zap.String("component", "dashboard")))
		go func() {
			var err error
			if len(cfg.DashboardDomains) > 0 {
				err = dash.StartWithAutoTLS(ctx, cfg.DashboardDomains, cfg.DashboardCertCache)
			} else {
				err = dash.Start(ctx)
			}
			if err != nil {
				logger.Error("dashboard stopped", zap.Error(err))
			}
		}()
		logger.Info("dashboard enabled", zap.String("listen", cfg.DashboardListen))
	}

	logger.Info("starting frame server", zap.String("listen", cfg.Listen), zap.Int("vaults", len(runtimes)))
	if err := server.Start(ctx); err != nil {
		logger.Fatal("frame server stopped", zap.Error(err))
	}
}
