package treasury

import (
	"context"
	"fmt"
	"math/big"

	"agentswarm.treasury/internal/infrastructure/blockchain"
	"agentswarm.treasury/internal/metrics"
)

// stuckNonceFeeMultiplier is how aggressively the clearing transfer outbids
// whatever priority fee the original stuck transaction used.
const stuckNonceFeeMultiplier = 10

// These three seams route nonce/fee reads through EVMClient by default;
// tests override them to drive ClearStuck without a live RPC connection.
var (
	fetchConfirmedNonce = func(ctx context.Context, c *blockchain.EVMClient, addr string) (uint64, error) {
		return c.NonceAt(ctx, addr)
	}
	fetchPendingNonce = func(ctx context.Context, c *blockchain.EVMClient, addr string) (uint64, error) {
		return c.PendingNonceAt(ctx, addr)
	}
	suggestTip = func(ctx context.Context, c *blockchain.EVMClient) (*big.Int, error) {
		return c.SuggestGasTipCap(ctx)
	}
)

// NonceHygiene clears stuck nonces on chains whose mempool is known to drop
// large pending transactions, by overwriting every unconfirmed nonce with a
// 0-value self-transfer at a much higher priority fee before the intended
// transaction is sent.
type NonceHygiene struct {
	Chain string
}

func NewNonceHygiene(chain string) *NonceHygiene {
	return &NonceHygiene{Chain: chain}
}

// hygieneSigner is the subset of txsigner.Signer that ClearStuck needs: an
// address to self-transfer to/from, and a way to send at an explicit nonce
// and priority fee.
type hygieneSigner interface {
	Address() string
	SendWithNonceAndTip(ctx context.Context, client *blockchain.EVMClient, to string, data []byte, value *big.Int, nonceOverride *uint64, tipOverride *big.Int) (string, error)
}

// ClearStuck runs the three-step recovery protocol: read the confirmed and
// pending nonce counts, overwrite every nonce in [confirmed, pending) with a
// self-transfer at >=10x the chain's suggested priority fee, then return so
// the caller can proceed with its intended transaction at the now-current
// pending nonce.
func (h *NonceHygiene) ClearStuck(ctx context.Context, client *blockchain.EVMClient, signer hygieneSigner) error {
	metrics.Init()

	addr := signer.Address()
	confirmed, err := fetchConfirmedNonce(ctx, client, addr)
	if err != nil {
		return fmt.Errorf("treasury: reading confirmed nonce: %w", err)
	}
	pending, err := fetchPendingNonce(ctx, client, addr)
	if err != nil {
		return fmt.Errorf("treasury: reading pending nonce: %w", err)
	}

	if pending <= confirmed {
		return nil // nothing stuck
	}

	tip, err := suggestTip(ctx, client)
	if err != nil {
		tip = big.NewInt(1_500_000_000)
	}
	aggressiveTip := new(big.Int).Mul(tip, big.NewInt(stuckNonceFeeMultiplier))

	for n := confirmed; n < pending; n++ {
		nonce := n
		if _, err := signer.SendWithNonceAndTip(ctx, client, addr, nil, big.NewInt(0), &nonce, aggressiveTip); err != nil {
			return fmt.Errorf("treasury: clearing stuck nonce %d: %w", nonce, err)
		}
	}

	metrics.NonceStuckRecoveries.WithLabelValues(h.Chain).Add(float64(pending - confirmed))
	return nil
}
