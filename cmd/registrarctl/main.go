package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"agentswarm.treasury/internal/config"
	"agentswarm.treasury/internal/identity"
	"agentswarm.treasury/internal/persistence"
	"agentswarm.treasury/internal/signing"
	"agentswarm.treasury/internal/walletledger"
	"agentswarm.treasury/pkg/logger"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
)

// registrarCtlDeps injects the wiring runRegistrarCtl needs, mirroring
// treasuryctl's shape so both binaries stay testable the same way.
type registrarCtlDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	prepare func(cfg *config.Config, identityURL, journalPath string) (*identity.Registrar, error)
}

func defaultRegistrarCtlDeps() registrarCtlDeps {
	return registrarCtlDeps{
		loadEnv: loadDotenv,
		loadCfg: loadCfg,
		prepare: prepareRegistrar,
	}
}

func prepareRegistrar(cfg *config.Config, identityURL, journalPath string) (*identity.Registrar, error) {
	priv, err := walletledger.PrivateKeyAt(cfg.Blockchain.Mnemonic, 0)
	if err != nil {
		return nil, fmt.Errorf("deriving registrar signing key: %w", err)
	}

	signer := signing.NewSigner(priv, chainIDFromEnv(), strings.TrimSuffix(identityURL, "/")+"/api/v1/auth/erc8128/nonce")
	client := identity.New(identityURL, signer)

	journal, err := persistence.OpenJournal(journalPath)
	if err != nil {
		return nil, fmt.Errorf("opening identity journal: %w", err)
	}

	return identity.NewRegistrar(client, journal), nil
}

func runRegistrarCtl(args []string, deps registrarCtlDeps) error {
	fs := flag.NewFlagSet("registrarctl", flag.ContinueOnError)
	walletsFile := fs.String("wallets-file", "", "path to the wallet manifest JSON (defaults to config's WALLETS_FILE)")
	agentCount := fs.Int("agent-count", 10, "number of agent wallets to derive if the manifest does not yet exist")
	networksFlag := fs.String("networks", "base", "comma-separated networks to register each agent's reputation on")
	identityURL := fs.String("identity-url", "", "base URL of the collaborator identity service (required)")
	agentURITemplate := fs.String("agent-uri-template", "", "printf template for each agent's URI, formatted with its address, e.g. https://agents.example.com/%s (required)")
	recipientAddr := fs.String("recipient", "", "recipient address recorded with each reputation registration (required)")
	journalPath := fs.String("journal", "./identities.json", "path to the idempotent registration journal")
	reportDir := fs.String("report-dir", "", "directory timestamped run reports are written to (defaults to config's REPORT_DIR)")
	force := fs.Bool("force", false, "re-register (agent, network) pairs the journal already marks successful")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *identityURL == "" {
		return fmt.Errorf("--identity-url is required")
	}
	if *agentURITemplate == "" {
		return fmt.Errorf("--agent-uri-template is required")
	}
	if *recipientAddr == "" {
		return fmt.Errorf("--recipient is required")
	}

	networks := splitNonEmpty(*networksFlag)
	if len(networks) == 0 {
		return fmt.Errorf("--networks must name at least one network")
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

	registrar, err := deps.prepare(cfg, *identityURL, *journalPath)
	if err != nil {
		return fmt.Errorf("preparing registrar: %w", err)
	}

	report, err := registrar.Run(context.Background(), manifest, networks, identity.RunOptions{
		Force:            *force,
		AgentURITemplate: *agentURITemplate,
		RecipientAddress: *recipientAddr,
		ReportDir:        dir,
	})
	if err != nil {
		return fmt.Errorf("registrar run failed: %w", err)
	}

	logger.Info(context.Background(), "registrar run complete",
		zap.Int("workersRegistered", report.Workers.Registered),
		zap.Int("workersExisting", report.Workers.Existing),
		zap.Int("workersFailed", report.Workers.Failed))
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

func splitNonEmpty(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// chainIDFromEnv resolves the chain id the registrar's client-side signer
// embeds in every keyid, matching cmd/authserver's verifier-side binding.
func chainIDFromEnv() int64 {
	const defaultChainID = 8453
	v := os.Getenv("EVM_OWNER_CHAIN_ID")
	if v == "" {
		return defaultChainID
	}
	var id int64
	if _, err := fmt.Sscanf(v, "%d", &id); err != nil || id == 0 {
		return defaultChainID
	}
	return id
}

func main() {
	if err := runRegistrarCtl(os.Args[1:], defaultRegistrarCtlDeps()); err != nil {
		log.Fatal(err)
	}
}
