package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"agentswarm.treasury/internal/bridge"
	"agentswarm.treasury/internal/bridge/debridge"
	"agentswarm.treasury/internal/bridge/squid"
	"agentswarm.treasury/internal/config"
	"agentswarm.treasury/internal/infrastructure/blockchain"
	"agentswarm.treasury/internal/persistence"
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

// treasuryCtlDeps injects everything runTreasuryCtl needs so tests can
// exercise flag parsing and orchestration without a live chain.
type treasuryCtlDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	prepare func(cfg *config.Config) (*treasury.Treasury, error)
}

func defaultTreasuryCtlDeps() treasuryCtlDeps {
	return treasuryCtlDeps{
		loadEnv: loadDotenv,
		loadCfg: loadCfg,
		prepare: prepareTreasury,
	}
}

func prepareTreasury(cfg *config.Config) (*treasury.Treasury, error) {
	reg, err := registry.New(registry.RegistryConfig{RPCOverrides: cfg.Blockchain.RPCOverrides})
	if err != nil {
		return nil, fmt.Errorf("building registry: %w", err)
	}

	factory := blockchain.NewClientFactory()
	clients := txsigner.NewRegistryClients(reg, factory)

	priv, err := walletledger.PrivateKeyAt(cfg.Blockchain.Mnemonic, 0)
	if err != nil {
		return nil, fmt.Errorf("deriving treasury owner key: %w", err)
	}
	signer := txsigner.New(priv, clients)

	router := bridge.NewRouter(reg)
	adapters := map[bridge.Provider]bridge.Adapter{
		bridge.ProviderDebridge: debridge.New(getEnv("DEBRIDGE_API_URL", "https://stargate.dln.trade")),
		bridge.ProviderSquid:    squid.New(getEnv("SQUID_API_URL", "https://apiplus.squidrouter.com")),
	}
	executor := bridge.NewExecutor(adapters)

	reg.SetBytecodeVerifier(func(ctx context.Context, chain, address string) (bool, error) {
		c, err := clients.Client(chain)
		if err != nil {
			return false, err
		}
		code, err := c.GetCode(ctx, address)
		if err != nil {
			return false, err
		}
		return len(code) > 0, nil
	})

	inventory := treasury.NewInventory(reg, clients)
	planner := treasury.NewPlanner(reg)
	distributor := treasury.NewDistributor(reg)
	sweeper := treasury.NewSweeper(reg, clients)

	return treasury.New(reg, inventory, planner, router, executor, distributor, sweeper, signer), nil
}

func runTreasuryCtl(args []string, deps treasuryCtlDeps) error {
	fs := flag.NewFlagSet("treasuryctl", flag.ContinueOnError)
	walletsFile := fs.String("wallets-file", "", "path to the wallet manifest JSON (defaults to config's WALLETS_FILE)")
	agentCount := fs.Int("agent-count", 10, "number of agent wallets to derive if the manifest does not yet exist")
	budgetsFlag := fs.String("budgets", "", "comma-separated chain=usd budgets, e.g. base=500,celo=120")
	sourceChain := fs.String("source-chain", "base", "chain that funds every other budgeted chain's bridge-in")
	sweep := fs.Bool("sweep", false, "sweep every budgeted chain back to --recovery-addr after distributing")
	recoveryAddr := fs.String("recovery-addr", "", "recovery address for --sweep")
	reportDir := fs.String("report-dir", "", "directory timestamped run reports are written to (defaults to config's REPORT_DIR)")
	seed := fs.Uint("seed", 0, "deterministic PRNG seed for the allocation plan; 0 draws a random seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	budgets, err := parseBudgets(*budgetsFlag)
	if err != nil {
		return err
	}
	if len(budgets) == 0 {
		return fmt.Errorf("--budgets must name at least one chain")
	}
	if *sweep && *recoveryAddr == "" {
		return fmt.Errorf("--recovery-addr is required when --sweep is set")
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := deps.loadCfg()
	initLog(cfg.Server.Env)

	path := *walletsFile
	if path == "" {
		path = cfg.Report.WalletsFile
	}
	dir := *reportDir
	if dir == "" {
		dir = cfg.Report.ReportDir
	}

	manifest, err := loadOrDeriveManifest(path, cfg.Blockchain.Mnemonic, *agentCount)
	if err != nil {
		return fmt.Errorf("loading wallet manifest: %w", err)
	}

	t, err := deps.prepare(cfg)
	if err != nil {
		return fmt.Errorf("preparing treasury: %w", err)
	}

	opts := treasury.RunOptions{
		Budgets:      budgets,
		PlanOptions:  treasury.PlanOptions{SourceChain: *sourceChain, Seed: uint32(*seed), HasSeed: *seed != 0},
		Sweep:        *sweep,
		RecoveryAddr: *recoveryAddr,
		ReportDir:    dir,
	}

	report, err := t.Run(context.Background(), manifest, cfg.Blockchain.Mnemonic, opts)
	if err != nil {
		return fmt.Errorf("treasury run failed: %w", err)
	}

	logger.Info(context.Background(), "treasury run complete",
		zap.Int("distributionItems", len(report.Distribution.Items)),
		zap.Int("bridgeLegs", len(report.Bridges)))
	return nil
}

func loadOrDeriveManifest(path, mnemonic string, count int) (*walletledger.Manifest, error) {
	if persistence.Exists(path) {
		var manifest walletledger.Manifest
		if err := persistence.ReadJSON(path, &manifest); err != nil {
			return nil, err
		}
		return &manifest, nil
	}

	manifest, err := walletledger.Derive(mnemonic, count, nil)
	if err != nil {
		return nil, err
	}
	if err := persistence.WriteJSON(path, manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

func parseBudgets(raw string) (map[string]float64, error) {
	budgets := make(map[string]float64)
	if raw == "" {
		return budgets, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("malformed budget entry %q, expected chain=usd", pair)
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("malformed budget amount in %q: %w", pair, err)
		}
		budgets[strings.TrimSpace(kv[0])] = amount
	}
	return budgets, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := runTreasuryCtl(os.Args[1:], defaultTreasuryCtlDeps()); err != nil {
		log.Fatal(err)
	}
}
