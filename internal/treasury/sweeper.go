package treasury

import (
	"context"
	"math/big"

	"agentswarm.treasury/internal/infrastructure/blockchain"
	"agentswarm.treasury/internal/registry"
	"agentswarm.treasury/internal/txsigner"
	"agentswarm.treasury/internal/walletledger"
)

// gasCostEstimate is the conservative native-unit cost of one sweep transfer,
// used only to tell dust from sweepable balance when the chain's live fee
// suggestion is unavailable.
var gasCostEstimate = big.NewInt(21_000 * 2_000_000_000) // 21k gas * 2 gwei

// fetchNativeBalance is a seam over EVMClient.GetBalance so tests can drive
// the sweep classification logic without a live RPC connection.
var fetchNativeBalance = func(ctx context.Context, client *blockchain.EVMClient, addr string) (*big.Int, error) {
	return client.GetBalance(ctx, addr)
}

// Sweeper reverses a distribution: for every derived wallet, every chain,
// every token, it moves any non-dust balance to a single recovery address.
type Sweeper struct {
	Registry *registry.Registry
	Clients  txsigner.ChainClients
}

func NewSweeper(reg *registry.Registry, clients txsigner.ChainClients) *Sweeper {
	return &Sweeper{Registry: reg, Clients: clients}
}

// Run sweeps every (wallet, chain, token) triple named by chains, re-deriving
// each wallet's signing key transiently from mnemonic — never persisting it.
func (s *Sweeper) Run(ctx context.Context, manifest *walletledger.Manifest, mnemonic string, chains []string, recoveryAddr string) (*SweepReport, error) {
	report := &SweepReport{}

	for _, w := range manifest.Wallets {
		priv, err := walletledger.PrivateKeyAt(mnemonic, w.Index)
		if err != nil {
			return report, err
		}
		signer := txsigner.New(priv, s.Clients)

		for _, chainName := range chains {
			info, err := s.Registry.Get(chainName)
			if err != nil {
				return report, err
			}
			client, err := s.Clients.Client(chainName)
			if err != nil {
				return report, err
			}

			items := s.sweepWallet(ctx, w.Name, w.Address, info, client, signer, recoveryAddr)
			report.Items = append(report.Items, items...)
		}
	}
	return report, nil
}

func (s *Sweeper) sweepWallet(ctx context.Context, walletName, addr string, info registry.ChainInfo, client *blockchain.EVMClient, signer *txsigner.Signer, recoveryAddr string) []SweepItem {
	var items []SweepItem

	native, err := fetchNativeBalance(ctx, client, addr)
	if err == nil {
		items = append(items, s.sweepNative(ctx, walletName, addr, info.Name, native, signer, recoveryAddr))
	}

	for sym, tok := range info.Tokens {
		bal, err := client.GetTokenBalance(ctx, tok.Address, addr)
		if err != nil {
			continue
		}
		items = append(items, s.sweepToken(ctx, walletName, addr, info.Name, sym, tok.Address, bal, signer, recoveryAddr))
	}
	return items
}

func (s *Sweeper) sweepNative(ctx context.Context, walletName, addr, chain string, balance *big.Int, signer *txsigner.Signer, recoveryAddr string) SweepItem {
	item := SweepItem{WalletName: walletName, Address: addr, Chain: chain, Outcome: SweepSkip}

	if balance.Sign() <= 0 {
		return item
	}
	if balance.Cmp(gasCostEstimate) <= 0 {
		item.Outcome = SweepDust
		item.Amount = balance.String()
		return item
	}

	sweepAmount := new(big.Int).Sub(balance, gasCostEstimate)
	txHash, err := signer.Send(ctx, chain, recoveryAddr, nil, sweepAmount)
	item.Amount = sweepAmount.String()
	if err != nil {
		item.Outcome = SweepDust
		item.Error = err.Error()
		return item
	}
	item.Outcome = SweepSwept
	item.TxHash = txHash
	return item
}

func (s *Sweeper) sweepToken(ctx context.Context, walletName, addr, chain, tokenSym, tokenAddr string, balance *big.Int, signer *txsigner.Signer, recoveryAddr string) SweepItem {
	item := SweepItem{WalletName: walletName, Address: addr, Chain: chain, Token: tokenSym, Outcome: SweepSkip}

	if balance.Sign() <= 0 {
		return item
	}

	txHash, err := signer.Transfer(ctx, chain, tokenAddr, recoveryAddr, balance)
	item.Amount = balance.String()
	if err != nil {
		item.Error = err.Error()
		return item
	}
	item.Outcome = SweepSwept
	item.TxHash = txHash
	return item
}
