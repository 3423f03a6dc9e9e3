package treasury

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"agentswarm.treasury/internal/metrics"
	"agentswarm.treasury/internal/registry"
)

// DisperseAddress is the CREATE2 address the canonical batch-disperse
// contract is deployed at on every chain where DisperseAvailable is true.
const DisperseAddress = "0xD152f549545093347A162Dce210e7293f1452150"

const disperseABIJSON = `[
  {"name":"disperseEther","type":"function","stateMutability":"payable",
   "inputs":[{"name":"recipients","type":"address[]"},{"name":"values","type":"uint256[]"}]},
  {"name":"disperseToken","type":"function","stateMutability":"nonpayable",
   "inputs":[{"name":"token","type":"address"},{"name":"recipients","type":"address[]"},{"name":"values","type":"uint256[]"}]}
]`

var parsedDisperseABI = mustParseABI(disperseABIJSON)

// DistributorSigner is the capability the Distributor needs: approve and
// send arbitrary calldata, scoped per chain.
type DistributorSigner interface {
	Approve(ctx context.Context, chain, token, spender string, amount *big.Int) (string, error)
	Transfer(ctx context.Context, chain, token, to string, amount *big.Int) (string, error)
	Send(ctx context.Context, chain, to string, data []byte, value *big.Int) (string, error)
}

// Distributor fans out an AllocationPlan's per-agent amounts, preferring the
// disperse contract's batch path and falling back to N sequential transfers
// when the chain has no verified disperse deployment.
type Distributor struct {
	Registry *registry.Registry
}

func NewDistributor(reg *registry.Registry) *Distributor {
	return &Distributor{Registry: reg}
}

// Run dispatches every chain's allocations, one token group at a time.
func (d *Distributor) Run(ctx context.Context, plan *AllocationPlan, signer DistributorSigner) (*DistributionReport, error) {
	report := &DistributionReport{}

	chainNames := make([]string, 0, len(plan.Chains))
	for chain := range plan.Chains {
		chainNames = append(chainNames, chain)
	}
	sort.Strings(chainNames)

	for _, chainName := range chainNames {
		alloc := plan.Chains[chainName]
		info, err := d.Registry.Get(chainName)
		if err != nil {
			return report, err
		}

		groups := groupByToken(alloc.PerAgent)
		tokenSyms := make([]string, 0, len(groups))
		for sym := range groups {
			tokenSyms = append(tokenSyms, sym)
		}
		sort.Strings(tokenSyms)

		for _, sym := range tokenSyms {
			items := d.runTokenGroup(ctx, info, sym, groups[sym], signer)
			report.Items = append(report.Items, items...)
		}
	}
	return report, nil
}

type allocationEntry struct {
	address string
	amount  float64
}

func groupByToken(perAgent map[string]PerAgentAllocation) map[string][]allocationEntry {
	out := make(map[string][]allocationEntry)
	for addr, a := range perAgent {
		out[a.Token] = append(out[a.Token], allocationEntry{address: addr, amount: a.Amount})
	}
	for sym := range out {
		sort.Slice(out[sym], func(i, j int) bool { return out[sym][i].address < out[sym][j].address })
	}
	return out
}

func (d *Distributor) runTokenGroup(ctx context.Context, info registry.ChainInfo, tokenSym string, entries []allocationEntry, signer DistributorSigner) []DistributionItem {
	tokenAddr := ""
	decimals := 6
	if tok, ok := info.Tokens[tokenSym]; ok {
		tokenAddr = tok.Address
		decimals = tok.Decimals
	}

	batchReady := info.DisperseAvailable
	if batchReady {
		ok, err := d.Registry.VerifyBytecode(ctx, info.Name, DisperseAddress)
		batchReady = ok && err == nil
	}

	mode := "sequential"
	if batchReady {
		mode = "batch"
	}

	if mode == "batch" {
		items, err := d.runBatch(ctx, info, tokenAddr, decimals, entries, signer)
		if err == nil {
			metrics.DistributionRecipientsTotal.WithLabelValues(info.Name, "batch").Add(float64(len(items)))
			return items
		}
		// Bytecode pre-flight passed but the batch call itself failed: fall
		// back to sequential rather than leaving the chain undistributed.
		mode = "sequential"
	}

	items := d.runSequential(ctx, info, tokenAddr, decimals, entries, signer)
	metrics.DistributionRecipientsTotal.WithLabelValues(info.Name, "sequential").Add(float64(len(items)))
	return items
}

func (d *Distributor) runBatch(ctx context.Context, info registry.ChainInfo, tokenAddr string, decimals int, entries []allocationEntry, signer DistributorSigner) ([]DistributionItem, error) {
	recipients := make([]common.Address, len(entries))
	amounts := make([]*big.Int, len(entries))
	total := big.NewInt(0)
	for i, e := range entries {
		recipients[i] = common.HexToAddress(e.address)
		amounts[i] = ToSmallestUnit(e.amount, decimals)
		total.Add(total, amounts[i])
	}

	if tokenAddr == "" {
		data, err := parsedDisperseABI.Pack("disperseEther", recipients, amounts)
		if err != nil {
			return nil, fmt.Errorf("packing disperseEther: %w", err)
		}
		txHash, err := signer.Send(ctx, info.Name, DisperseAddress, data, total)
		if err != nil {
			return nil, err
		}
		return itemsFor(info.Name, "native", entries, txHash, "batch"), nil
	}

	buffered := new(big.Int).Mul(total, big.NewInt(110))
	buffered.Div(buffered, big.NewInt(100))
	if _, err := signer.Approve(ctx, info.Name, tokenAddr, DisperseAddress, buffered); err != nil {
		return nil, fmt.Errorf("approving disperse contract: %w", err)
	}

	data, err := parsedDisperseABI.Pack("disperseToken", common.HexToAddress(tokenAddr), recipients, amounts)
	if err != nil {
		return nil, fmt.Errorf("packing disperseToken: %w", err)
	}
	txHash, err := signer.Send(ctx, info.Name, DisperseAddress, data, big.NewInt(0))
	if err != nil {
		return nil, err
	}
	return itemsFor(info.Name, tokenTag(tokenAddr, entries), entries, txHash, "batch"), nil
}

func (d *Distributor) runSequential(ctx context.Context, info registry.ChainInfo, tokenAddr string, decimals int, entries []allocationEntry, signer DistributorSigner) []DistributionItem {
	items := make([]DistributionItem, 0, len(entries))
	for _, e := range entries {
		amount := ToSmallestUnit(e.amount, decimals)
		var txHash string
		var err error
		if tokenAddr == "" {
			txHash, err = signer.Send(ctx, info.Name, e.address, nil, amount)
		} else {
			txHash, err = signer.Transfer(ctx, info.Name, tokenAddr, e.address, amount)
		}
		item := DistributionItem{Chain: info.Name, Address: e.address, Amount: e.amount, Mode: "sequential", TxHash: txHash}
		if err != nil {
			item.Failed = true
			item.Error = err.Error()
		}
		items = append(items, item)
	}
	return items
}

func itemsFor(chain, token string, entries []allocationEntry, txHash, mode string) []DistributionItem {
	items := make([]DistributionItem, len(entries))
	for i, e := range entries {
		items[i] = DistributionItem{Chain: chain, Address: e.address, Token: token, Amount: e.amount, Mode: mode, TxHash: txHash}
	}
	return items
}

func tokenTag(addr string, entries []allocationEntry) string {
	return strings.ToLower(addr)
}

// ToSmallestUnit converts a decimal USD/token amount into the token's
// smallest integer unit (e.g. USDC's 6-decimal base units).
func ToSmallestUnit(amount float64, decimals int) *big.Int {
	scaled := new(big.Float).SetPrec(256).SetFloat64(amount)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	scaled.Mul(scaled, new(big.Float).SetPrec(256).SetInt(scale))
	scaled.Add(scaled, big.NewFloat(0.5))
	out, _ := scaled.Int(nil)
	return out
}
