package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"agentswarm.treasury/internal/bridge"
	"agentswarm.treasury/internal/bridge/debridge"
	"agentswarm.treasury/internal/bridge/squid"
	"agentswarm.treasury/internal/config"
	"agentswarm.treasury/internal/infrastructure/blockchain"
	"agentswarm.treasury/internal/registry"
	"agentswarm.treasury/internal/treasury"
	"agentswarm.treasury/internal/txsigner"
	"agentswarm.treasury/internal/walletledger"
	"agentswarm.treasury/pkg/logger"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
)

// bridgeCtlDeps injects the wiring runBridgeCtl needs, mirroring
// treasuryctl's shape so both binaries stay testable the same way.
type bridgeCtlDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	prepare func(cfg *config.Config) (*bridge.Router, *bridge.Executor, bridge.TxSigner, error)
}

func defaultBridgeCtlDeps() bridgeCtlDeps {
	return bridgeCtlDeps{
		loadEnv: loadDotenv,
		loadCfg: loadCfg,
		prepare: prepareBridge,
	}
}

func prepareBridge(cfg *config.Config) (*bridge.Router, *bridge.Executor, bridge.TxSigner, error) {
	reg, err := registry.New(registry.RegistryConfig{RPCOverrides: cfg.Blockchain.RPCOverrides})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("building registry: %w", err)
	}

	factory := blockchain.NewClientFactory()
	clients := txsigner.NewRegistryClients(reg, factory)

	priv, err := walletledger.PrivateKeyAt(cfg.Blockchain.Mnemonic, 0)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("deriving signing key: %w", err)
	}
	signer := txsigner.New(priv, clients)

	router := bridge.NewRouter(reg)
	adapters := map[bridge.Provider]bridge.Adapter{
		bridge.ProviderDebridge: debridge.New(getEnv("DEBRIDGE_API_URL", "https://stargate.dln.trade")),
		bridge.ProviderSquid:    squid.New(getEnv("SQUID_API_URL", "https://apiplus.squidrouter.com")),
	}
	executor := bridge.NewExecutor(adapters)

	return router, executor, signer, nil
}

func runBridgeCtl(args []string, deps bridgeCtlDeps) error {
	fs := flag.NewFlagSet("bridgectl", flag.ContinueOnError)
	src := fs.String("src", "", "source chain (required)")
	dst := fs.String("dst", "", "destination chain (required)")
	token := fs.String("token", "USDC", "token symbol to bridge")
	usdAmount := fs.Float64("amount", 0, "USD amount to bridge (required, > 0)")
	decimals := fs.Int("decimals", 6, "token decimals for the smallest-unit conversion")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *src == "" || *dst == "" {
		return fmt.Errorf("--src and --dst are required")
	}
	if *usdAmount <= 0 {
		return fmt.Errorf("--amount must be greater than zero")
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := deps.loadCfg()
	initLog(cfg.Server.Env)

	router, executor, signer, err := deps.prepare(cfg)
	if err != nil {
		return fmt.Errorf("preparing bridge: %w", err)
	}

	route := router.Select(*src, *dst, *token)
	if !route.Available {
		return fmt.Errorf("no route available: %s", route.Reason)
	}

	amount := treasury.ToSmallestUnit(*usdAmount, *decimals)
	req := bridge.QuoteRequest{
		SrcChain: *src,
		DstChain: *dst,
		Token:    *token,
		Amount:   amount,
		Sender:   signer.Address(),
		Receiver: signer.Address(),
	}

	quote, txHash, status, err := executor.Run(context.Background(), route, amount, req, signer)
	if err != nil {
		return fmt.Errorf("bridge run failed: %w", err)
	}

	logger.Info(context.Background(), "bridge leg complete",
		zap.String("provider", string(route.Provider)),
		zap.String("status", string(status)),
		zap.String("txHash", txHash),
		zap.String("trackingUrl", quote.TrackingURL))
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := runBridgeCtl(os.Args[1:], defaultBridgeCtlDeps()); err != nil {
		log.Fatal(err)
	}
}
