package treasury

import (
	"math"
	"sort"

	"agentswarm.treasury/internal/metrics"
	"agentswarm.treasury/internal/registry"
	"agentswarm.treasury/internal/walletledger"
)

const (
	defaultMinPerAgent    = 0.10
	defaultMultiplierLow  = 0.3
	defaultMultiplierHigh = 1.7
	defaultNonUSDCProb    = 0.40
)

// Planner turns a wallet manifest and per-chain budgets into a deterministic
// AllocationPlan.
type Planner struct {
	Registry *registry.Registry
}

func NewPlanner(reg *registry.Registry) *Planner {
	return &Planner{Registry: reg}
}

func withDefaults(opts PlanOptions) PlanOptions {
	if opts.MinPerAgent == 0 {
		opts.MinPerAgent = defaultMinPerAgent
	}
	if opts.MultiplierLow == 0 && opts.MultiplierHigh == 0 {
		opts.MultiplierLow, opts.MultiplierHigh = defaultMultiplierLow, defaultMultiplierHigh
	}
	if opts.NonUSDCProb == 0 {
		opts.NonUSDCProb = defaultNonUSDCProb
	}
	return opts
}

// Plan implements the six-step per-chain allocation algorithm: draw a
// budget/N * multiplier value per agent, clamp to the floor, normalize back
// to the exact budget, re-clamp, round to cents, then fix the rounding
// residual on the single largest entry so the sum is exact. A mulberry32
// PRNG seeded from opts.Seed (or a crypto/rand-drawn seed if none given)
// drives every random draw, so the same seed always reproduces the same
// plan.
func (p *Planner) Plan(manifest *walletledger.Manifest, budgets map[string]float64, opts PlanOptions) (*AllocationPlan, error) {
	metrics.Init()

	opts = withDefaults(opts)
	seed := opts.Seed
	if !opts.HasSeed {
		seed = randomSeed()
	}
	rng := newMulberry32(seed)

	addrs := make([]string, 0, len(manifest.Wallets))
	for _, w := range manifest.Wallets {
		addrs = append(addrs, w.Address)
	}
	sort.Strings(addrs) // deterministic iteration order independent of manifest file ordering

	chains := make(map[string]ChainAllocation, len(budgets))
	chainNames := make([]string, 0, len(budgets))
	for chain := range budgets {
		chainNames = append(chainNames, chain)
	}
	sort.Strings(chainNames)

	for _, chain := range chainNames {
		budget := budgets[chain]
		n := len(addrs)
		if n == 0 {
			chains[chain] = ChainAllocation{TotalUSD: budget, PerAgent: map[string]PerAgentAllocation{}}
			continue
		}

		mu := budget / float64(n)
		raw := make([]float64, n)

		// Step 1: draw xi = mu * multiplier.
		for i := range raw {
			raw[i] = mu * rng.Range(opts.MultiplierLow, opts.MultiplierHigh)
		}
		// Step 2: clamp to the floor.
		clamp(raw, opts.MinPerAgent)

		// Step 3: normalize so the sum equals budget exactly (pre-rounding).
		sum := sumOf(raw)
		if sum > 0 {
			scale := budget / sum
			for i := range raw {
				raw[i] *= scale
			}
		}
		// Step 4: re-clamp after scaling.
		clamp(raw, opts.MinPerAgent)

		// Step 5: round to 2 decimals.
		rounded := make([]float64, n)
		for i, v := range raw {
			rounded[i] = math.Round(v*100) / 100
		}

		// Step 6: fix the residual on the single largest entry.
		residual := math.Round((budget-sumOf(rounded))*100) / 100
		if residual != 0 {
			largest := 0
			for i := 1; i < n; i++ {
				if rounded[i] > rounded[largest] {
					largest = i
				}
			}
			rounded[largest] = math.Round((rounded[largest]+residual)*100) / 100
		}

		perAgent := make(map[string]PerAgentAllocation, n)
		tokens, err := p.Registry.Tokens(chain)
		if err != nil {
			return nil, err
		}
		nonUSDC := nonUSDCSymbols(tokens)

		for i, addr := range addrs {
			token := "USDC"
			if len(nonUSDC) > 0 && rng.Float64() < opts.NonUSDCProb {
				token = nonUSDC[int(rng.Float64()*float64(len(nonUSDC)))%len(nonUSDC)]
			}
			perAgent[addr] = PerAgentAllocation{Amount: rounded[i], Token: token}
		}

		chains[chain] = ChainAllocation{TotalUSD: budget, PerAgent: perAgent}
	}

	metrics.AllocationRunsTotal.Inc()

	total := 0.0
	for _, b := range budgets {
		total += b
	}

	bridgePlan := BridgePlan{Source: opts.SourceChain, Targets: map[string]float64{}}
	for _, chain := range chainNames {
		if chain != opts.SourceChain {
			bridgePlan.Targets[chain] = budgets[chain]
		}
	}

	return &AllocationPlan{
		BudgetUSD:   total,
		SourceChain: opts.SourceChain,
		Chains:      chains,
		BridgePlan:  bridgePlan,
	}, nil
}

func clamp(xs []float64, min float64) {
	for i := range xs {
		if xs[i] < min {
			xs[i] = min
		}
	}
}

func sumOf(xs []float64) float64 {
	s := 0.0
	for _, v := range xs {
		s += v
	}
	return s
}

func nonUSDCSymbols(tokens map[string]registry.TokenInfo) []string {
	var out []string
	for sym := range tokens {
		if sym != "USDC" {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}
