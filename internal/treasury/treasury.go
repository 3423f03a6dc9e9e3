package treasury

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"go.uber.org/zap"

	"agentswarm.treasury/internal/bridge"
	"agentswarm.treasury/internal/persistence"
	"agentswarm.treasury/internal/registry"
	"agentswarm.treasury/internal/walletledger"
	"agentswarm.treasury/pkg/logger"
)

// RunOptions configures one Treasury.Run invocation.
type RunOptions struct {
	Budgets      map[string]float64 // chain -> usd budget
	PlanOptions  PlanOptions
	Sweep        bool
	RecoveryAddr string // required when Sweep is true
	ReportDir    string
}

// RunReport is the single JSON artifact a Treasury.Run invocation persists.
type RunReport struct {
	Plan         *AllocationPlan     `json:"plan"`
	Balances     []BalanceRow        `json:"balances"`
	Bridges      []bridgeOutcome     `json:"bridges"`
	Distribution *DistributionReport `json:"distribution"`
	Sweep        *SweepReport        `json:"sweep,omitempty"`
}

type bridgeOutcome struct {
	SrcChain string        `json:"srcChain"`
	DstChain string        `json:"dstChain"`
	Provider bridge.Provider `json:"provider"`
	Status   bridge.Status   `json:"status"`
	TxHash   string        `json:"txHash"`
	Error    string        `json:"error,omitempty"`
}

// Treasury wires Inventory, Planner, the bridge Router/Executor, Distributor
// and Sweeper into one end-to-end run: load manifest, read balances, plan,
// bridge funds in from the source chain, distribute to agents, and
// optionally sweep back to a recovery address.
type Treasury struct {
	Registry    *registry.Registry
	Inventory   *Inventory
	Planner     *Planner
	Router      *bridge.Router
	Executor    *bridge.Executor
	Distributor *Distributor
	Sweeper     *Sweeper
	Signer      interface {
		Address() string
		Approve(ctx context.Context, chain, token, spender string, amount *big.Int) (string, error)
		Transfer(ctx context.Context, chain, token, to string, amount *big.Int) (string, error)
		Send(ctx context.Context, chain, to string, data []byte, value *big.Int) (string, error)
	}
	Log *zap.Logger
}

func New(
	reg *registry.Registry,
	inv *Inventory,
	planner *Planner,
	router *bridge.Router,
	executor *bridge.Executor,
	distributor *Distributor,
	sweeper *Sweeper,
	signer interface {
		Address() string
		Approve(ctx context.Context, chain, token, spender string, amount *big.Int) (string, error)
		Transfer(ctx context.Context, chain, token, to string, amount *big.Int) (string, error)
		Send(ctx context.Context, chain, to string, data []byte, value *big.Int) (string, error)
	},
) *Treasury {
	return &Treasury{
		Registry:    reg,
		Inventory:   inv,
		Planner:     planner,
		Router:      router,
		Executor:    executor,
		Distributor: distributor,
		Sweeper:     sweeper,
		Signer:      signer,
		Log:         logger.GetLogger(),
	}
}

// Run executes one full treasury cycle and persists a timestamped report
// under opts.ReportDir. mnemonic is only needed when opts.Sweep is set,
// since sweeping re-derives each agent wallet's signing key transiently.
func (t *Treasury) Run(ctx context.Context, manifest *walletledger.Manifest, mnemonic string, opts RunOptions) (*RunReport, error) {
	log := t.Log.With(zap.Int("walletCount", len(manifest.Wallets)))
	log.Info("treasury run starting")

	addrs := make([]string, 0, len(manifest.Wallets))
	for _, w := range manifest.Wallets {
		addrs = append(addrs, w.Address)
	}
	chainNames := make([]string, 0, len(opts.Budgets))
	for chain := range opts.Budgets {
		chainNames = append(chainNames, chain)
	}
	sort.Strings(chainNames)

	balances, err := t.Inventory.ReadBalances(ctx, addrs, chainNames)
	if err != nil {
		return nil, fmt.Errorf("treasury: reading balances: %w", err)
	}

	plan, err := t.Planner.Plan(manifest, opts.Budgets, opts.PlanOptions)
	if err != nil {
		return nil, fmt.Errorf("treasury: planning allocation: %w", err)
	}

	var bridgeOutcomes []bridgeOutcome
	targetChains := make([]string, 0, len(plan.BridgePlan.Targets))
	for chain := range plan.BridgePlan.Targets {
		targetChains = append(targetChains, chain)
	}
	sort.Strings(targetChains)

	for _, dst := range targetChains {
		usdAmount := plan.BridgePlan.Targets[dst]
		route := t.Router.Select(plan.BridgePlan.Source, dst, "USDC")
		outcome := bridgeOutcome{SrcChain: plan.BridgePlan.Source, DstChain: dst, Provider: route.Provider}

		if !route.Available {
			outcome.Error = route.Reason
			bridgeOutcomes = append(bridgeOutcomes, outcome)
			continue
		}

		decimals := 6
		if tok, err := t.Registry.Token(plan.BridgePlan.Source, "USDC"); err == nil {
			decimals = tok.Decimals
		}
		amount := ToSmallestUnit(usdAmount, decimals) // USDC; 1 USDC ~= $1
		req := bridge.QuoteRequest{
			SrcChain: plan.BridgePlan.Source,
			DstChain: dst,
			Token:    "USDC",
			Amount:   amount,
			Sender:   t.Signer.Address(),
			Receiver: t.Signer.Address(),
		}

		_, txHash, status, err := t.Executor.Run(ctx, route, amount, req, t.Signer)
		outcome.Status = status
		outcome.TxHash = txHash
		if err != nil {
			outcome.Error = err.Error()
			log.Error("bridge leg failed", zap.String("dstChain", dst), zap.Error(err))
		}
		bridgeOutcomes = append(bridgeOutcomes, outcome)
	}

	distReport, err := t.Distributor.Run(ctx, plan, t.Signer)
	if err != nil {
		return nil, fmt.Errorf("treasury: distributing: %w", err)
	}

	report := &RunReport{
		Plan:         plan,
		Balances:     balances,
		Bridges:      bridgeOutcomes,
		Distribution: distReport,
	}

	if opts.Sweep {
		sweepChains := chainNames
		sweepReport, err := t.Sweeper.Run(ctx, manifest, mnemonic, sweepChains, opts.RecoveryAddr)
		if err != nil {
			return nil, fmt.Errorf("treasury: sweeping: %w", err)
		}
		report.Sweep = sweepReport
	}

	if opts.ReportDir != "" {
		path := persistence.TimestampedReportPath(opts.ReportDir, "treasury", time.Now())
		if err := persistence.WriteJSON(path, report); err != nil {
			return nil, fmt.Errorf("treasury: writing report: %w", err)
		}
		log.Info("treasury report written", zap.String("path", path))
	}

	log.Info("treasury run complete")
	return report, nil
}
