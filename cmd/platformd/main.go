// Copyright 2025 Certen Protocol

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtconfig "github.com/cometbft/cometbft/config"
	dbm "github.com/cometbft/cometbft-db"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/proxy"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/driveplatform/core/pkg/blockdriver"
	"github.com/driveplatform/core/pkg/bls"
	"github.com/driveplatform/core/pkg/config"
	"github.com/driveplatform/core/pkg/costs"
	"github.com/driveplatform/core/pkg/database"
	"github.com/driveplatform/core/pkg/datatrigger"
	"github.com/driveplatform/core/pkg/pvr"
	"github.com/driveplatform/core/pkg/query"
	"github.com/driveplatform/core/pkg/telemetry"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("🚀 Starting platform execution core")

	var (
		validatorID  = flag.String("validator-id", "", "Validator ID (overrides VALIDATOR_ID env var)")
		platformYAML = flag.String("platform-config", "", "Path to the network's platform.yaml (optional)")
		showHelp     = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *showHelp {
		printHelp()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration:", err)
	}
	if *validatorID != "" {
		log.Printf("📋 CLI flag override: using validator ID from command line: %s", *validatorID)
		cfg.ValidatorID = *validatorID
	}

	var platformCfg *config.PlatformConfig
	if *platformYAML != "" {
		log.Printf("📄 Loading network configuration from %s", *platformYAML)
		platformCfg, err = config.LoadPlatformConfig(*platformYAML)
		if err != nil {
			log.Fatal("failed to load platform config:", err)
		}
	}

	root := telemetry.DefaultRootLogger()
	health := telemetry.NewHealthStatus()
	promRegistry := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(promRegistry)

	// ==========================================================================
	// Cost Accountant - per-protocol-version fee tables
	// ==========================================================================
	feeTables := map[pvr.Selector]costs.FeeTable{0: costs.DefaultFeeTable()}
	if platformCfg != nil {
		if settings, ok := platformCfg.FeeTableFor(cfg.InitialProtocolVersion); ok {
			feeTables[0] = costs.FeeTable{
				StorageCreditsPerByte:    settings.StorageCreditsPerByte,
				ProcessingCreditsPerOp:   settings.ProcessingCreditsPerOp,
				ProcessingCreditsPerHash: settings.ProcessingCreditsPerHash,
				RefundEpochs:             settings.RefundEpochs,
			}
		}
	}
	accountant := costs.New(feeTables, telemetry.Component(root, "costs"))

	registry := pvr.New(pvr.Default())
	triggers := datatrigger.NewEngine(nil)

	// ==========================================================================
	// Masternode BLS identity - loaded for quorum participation, not yet
	// required for single-node operation
	// ==========================================================================
	if cfg.BLSPrivateKeyPath != "" {
		keyManager := bls.NewKeyManager(cfg.BLSPrivateKeyPath)
		if err := keyManager.LoadOrGenerateKey(); err != nil {
			log.Printf("⚠️ failed to load masternode BLS key: %v", err)
		} else {
			log.Printf("🔑 masternode BLS public key: %s", keyManager.GetPublicKeyHex())
		}
	}

	// ==========================================================================
	// Read-index - PostgreSQL secondary index, degraded mode if unreachable
	// ==========================================================================
	health.SetReadIndex("unknown")
	dbClient, err := database.NewClient(cfg, database.WithLogger(
		log.New(log.Writer(), "[ReadIndex] ", log.LstdFlags)))
	var repos *database.Repositories
	if err != nil {
		log.Printf("⚠️ read-index connection failed, running in degraded mode: %v", err)
		health.SetReadIndex("disconnected")
		if cfg.DatabaseRequired {
			log.Fatal("DATABASE_REQUIRED is set and the read-index is unreachable")
		}
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := dbClient.MigrateUp(ctx); err != nil {
			log.Printf("⚠️ read-index migration failed: %v", err)
		}
		cancel()
		defer dbClient.Close()
		repos = database.NewRepositories(dbClient)
		health.SetReadIndex("connected")
		log.Println("✅ read-index connected and migrated")
	}

	// ==========================================================================
	// Block Driver - the ABCI++ application
	// ==========================================================================
	app := blockdriver.NewApplication(registry, accountant, triggers, 1, telemetry.Component(root, "blockdriver"))
	health.SetStore("connected")

	cometCfg, err := newCometConfig(cfg)
	if err != nil {
		log.Fatal("failed to prepare cometbft config:", err)
	}
	engine, err := startCometBFT(cometCfg, app)
	if err != nil {
		log.Fatal("failed to start cometbft node:", err)
	}
	defer engine.Stop()
	health.SetConsensus("connected")
	health.SetBlockDriver("connected")

	// ==========================================================================
	// HTTP server - health, metrics, and the query API
	// ==========================================================================
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(health.StatusCode())
		w.Write(health.ToJSON())
	})
	mux.Handle("/metrics", telemetry.Handler(promRegistry))

	if repos != nil {
		identityHandlers := query.NewIdentityHandlers(repos.Identities)
		contractHandlers := query.NewContractHandlers(repos.Contracts)
		documentHandlers := query.NewDocumentHandlers(repos.Documents)
		voteHandlers := query.NewVoteHandlers(repos.Votes)

		mux.HandleFunc("/api/identities", metrics.Instrument("/api/identities", identityHandlers.HandleGetIdentity))
		mux.HandleFunc("/api/identities/by-key", metrics.Instrument("/api/identities/by-key", identityHandlers.HandleGetIdentityByPublicKeyHash))
		mux.HandleFunc("/api/identities/balance", metrics.Instrument("/api/identities/balance", identityHandlers.HandleGetIdentityBalanceAndRevision))
		mux.HandleFunc("/api/identities/keys", metrics.Instrument("/api/identities/keys", identityHandlers.HandleGetIdentityKeys))

		mux.HandleFunc("/api/contracts", metrics.Instrument("/api/contracts", contractHandlers.HandleGetDataContract))
		mux.HandleFunc("/api/contracts/batch", metrics.Instrument("/api/contracts/batch", contractHandlers.HandleGetDataContracts))

		mux.HandleFunc("/api/documents/get", metrics.Instrument("/api/documents/get", documentHandlers.HandleGetDocument))
		mux.HandleFunc("/api/documents", metrics.Instrument("/api/documents", documentHandlers.HandleGetDocuments))

		mux.HandleFunc("/api/votes/poll", metrics.Instrument("/api/votes/poll", voteHandlers.HandleGetVotePollStatus))
		mux.HandleFunc("/api/votes/protocol-version", metrics.Instrument("/api/votes/protocol-version", voteHandlers.HandleGetProtocolVersionUpgradeVoteStatus))
	} else {
		log.Println("⚠️ query API disabled: read-index unavailable")
	}

	server := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		log.Printf("🌐 query API listening on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("⚠️ HTTP server error: %v", err)
		}
	}()

	waitForShutdown(server, engine)
}

func waitForShutdown(server *http.Server, engine *cometBFTEngine) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("🛑 shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ HTTP shutdown error: %v", err)
	}
	if err := engine.Stop(); err != nil {
		log.Printf("⚠️ cometbft shutdown error: %v", err)
	}
}

// newCometConfig builds a CometBFT config rooted at cfg.DataDir, with P2P
// and RPC listen addresses and the node moniker set from cfg. Grounded on
// the base repo's bft_integration.go, which built its config the same way
// (config.DefaultConfig then overriding P2P.ListenAddress/RPC.ListenAddress/
// Moniker) before handing it to node.NewNode.
func newCometConfig(cfg *config.Config) (*cmtconfig.Config, error) {
	cometCfg := cmtconfig.DefaultConfig()
	cometCfg.SetRoot(filepath.Join(cfg.DataDir, "cometbft"))
	cometCfg.P2P.ListenAddress = fmt.Sprintf("tcp://0.0.0.0:%d", cfg.P2PPort)
	cometCfg.RPC.ListenAddress = fmt.Sprintf("tcp://0.0.0.0:%d", cfg.RPCPort)
	cometCfg.Moniker = cfg.ValidatorID
	return cometCfg, nil
}

type cometBFTEngine struct {
	node *node.Node
}

func (e *cometBFTEngine) Stop() error {
	if e == nil || e.node == nil {
		return nil
	}
	return e.node.Stop()
}

// startCometBFT wires app into an in-process CometBFT node and starts
// consensus. Grounded on the base repo's NewRealCometBFTEngine: same
// DB provider, same file-based private validator and node key loaded from
// cometCfg's standard locations, same proxy.NewLocalClientCreator(app)
// local ABCI client wiring.
func startCometBFT(cometCfg *cmtconfig.Config, app abcitypes.Application) (*cometBFTEngine, error) {
	dbProvider := cmtconfig.DBProvider(func(ctx *cmtconfig.DBContext) (dbm.DB, error) {
		return dbm.NewDB(ctx.ID, dbm.BackendType(cometCfg.DBBackend), filepath.Join(cometCfg.RootDir, "data"))
	})

	pv := privval.LoadOrGenFilePV(cometCfg.PrivValidatorKeyFile(), cometCfg.PrivValidatorStateFile())
	nodeKey, err := p2p.LoadOrGenNodeKey(cometCfg.NodeKeyFile())
	if err != nil {
		return nil, fmt.Errorf("load node key: %w", err)
	}

	tmLogger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout)).With("module", "cometbft")

	n, err := node.NewNode(
		cometCfg,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(app),
		node.DefaultGenesisDocProviderFunc(cometCfg),
		dbProvider,
		node.DefaultMetricsProvider(cometCfg.Instrumentation),
		tmLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("create cometbft node: %w", err)
	}
	if err := n.Start(); err != nil {
		return nil, fmt.Errorf("start cometbft node: %w", err)
	}

	return &cometBFTEngine{node: n}, nil
}

func printHelp() {
	fmt.Println("platformd - drive platform execution core")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  platformd [flags]")
	fmt.Println()
	flag.PrintDefaults()
}
