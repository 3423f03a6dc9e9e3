// Package txsigner turns a single ecdsa private key into a bridge.TxSigner /
// treasury-facing signer capable of approving ERC-20 allowances and sending
// arbitrary contract calls across any chain the caller has an EVMClient for.
// All ABI encoding here follows the same manual selector+padding approach
// as EVMClient.GetTokenBalance.
package txsigner

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"agentswarm.treasury/internal/bridge/txqueue"
	"agentswarm.treasury/internal/infrastructure/blockchain"
)

const (
	selectorApprove  = "095ea7b3"
	selectorTransfer = "a9059cbb"

	defaultGasLimit = uint64(120_000)
)

// ChainClients resolves a chain's EVMClient by the registry's short chain
// name (e.g. "base"), keeping Signer chain-agnostic.
type ChainClients interface {
	Client(chain string) (*blockchain.EVMClient, error)
}

// Signer signs every outbound transaction with one ecdsa private key,
// re-derived transiently by the caller (see internal/walletledger's security
// contract) and never persisted beyond the lifetime of one job run.
type Signer struct {
	PrivateKey *ecdsa.PrivateKey
	Clients    ChainClients

	// Queues serializes every SendWithNonceAndTip call through one owner
	// goroutine per (chain, address), so two concurrent bridge legs or a
	// bridge leg racing a NonceHygiene clear never submit against the same
	// nonce.
	Queues *txqueue.Registry
}

func New(priv *ecdsa.PrivateKey, clients ChainClients) *Signer {
	return &Signer{PrivateKey: priv, Clients: clients, Queues: txqueue.NewRegistry()}
}

// Address returns the checksummed address derived from PrivateKey.
func (s *Signer) Address() string {
	return crypto.PubkeyToAddress(s.PrivateKey.PublicKey).Hex()
}

// Approve submits an ERC-20 approve(spender, amount) call on chain and
// returns once the transaction is broadcast (not mined).
func (s *Signer) Approve(ctx context.Context, chain, token, spender string, amount *big.Int) (string, error) {
	data := encodeApprove(spender, amount)
	return s.Send(ctx, chain, token, data, big.NewInt(0))
}

// Transfer submits an ERC-20 transfer(to, amount) call on chain.
func (s *Signer) Transfer(ctx context.Context, chain, token, to string, amount *big.Int) (string, error) {
	data := encodeTransfer(to, amount)
	return s.Send(ctx, chain, token, data, big.NewInt(0))
}

// Send signs and broadcasts an arbitrary contract call (to, data, value) on
// chain, using the pending nonce and the chain's suggested priority fee.
func (s *Signer) Send(ctx context.Context, chain, to string, data []byte, value *big.Int) (string, error) {
	client, err := s.Clients.Client(chain)
	if err != nil {
		return "", fmt.Errorf("txsigner: resolving client for %s: %w", chain, err)
	}
	return s.SendWithNonce(ctx, client, to, data, value, nil)
}

// SendWithNonce is Send with an explicit nonce override, to submit at a
// specific nonce rather than the pending one. The nonce hygiene protocol
// (internal/treasury.NonceHygiene) uses SendWithNonceAndTip instead.
func (s *Signer) SendWithNonce(ctx context.Context, client *blockchain.EVMClient, to string, data []byte, value *big.Int, nonceOverride *uint64) (string, error) {
	return s.SendWithNonceAndTip(ctx, client, to, data, value, nonceOverride, nil)
}

// SendWithNonceAndTip additionally lets the caller force a specific priority
// fee, used to outbid a stuck pending transaction at the same nonce. The
// nonce-fetch-through-broadcast section runs on the (chain, address) owner
// goroutine from Queues, so it never races a concurrent call for the same
// account on the same chain.
func (s *Signer) SendWithNonceAndTip(ctx context.Context, client *blockchain.EVMClient, to string, data []byte, value *big.Int, nonceOverride *uint64, tipOverride *big.Int) (string, error) {
	address := s.Address()
	queue := s.Queues.Owner(client.ChainID().String(), address)
	return queue.Submit(ctx, func(ctx context.Context) (string, error) {
		return s.sendLocked(ctx, client, address, to, data, value, nonceOverride, tipOverride)
	})
}

func (s *Signer) sendLocked(ctx context.Context, client *blockchain.EVMClient, address, to string, data []byte, value *big.Int, nonceOverride *uint64, tipOverride *big.Int) (string, error) {
	var nonce uint64
	var err error
	if nonceOverride != nil {
		nonce = *nonceOverride
	} else {
		nonce, err = client.PendingNonceAt(ctx, address)
		if err != nil {
			return "", fmt.Errorf("txsigner: fetching nonce: %w", err)
		}
	}

	tip := tipOverride
	if tip == nil {
		tip, err = client.SuggestGasTipCap(ctx)
		if err != nil {
			tip = big.NewInt(1_500_000_000) // 1.5 gwei fallback
		}
	}
	feeCap := new(big.Int).Mul(tip, big.NewInt(2))

	toAddr := common.HexToAddress(to)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   client.ChainID(),
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       defaultGasLimit,
		To:        &toAddr,
		Value:     value,
		Data:      data,
	})

	signed, err := types.SignTx(tx, types.NewLondonSigner(client.ChainID()), s.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("txsigner: signing transaction: %w", err)
	}

	if err := client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("txsigner: broadcasting transaction: %w", err)
	}
	return signed.Hash().Hex(), nil
}

func encodeApprove(spender string, amount *big.Int) []byte {
	return encodeAddressAmount(selectorApprove, spender, amount)
}

func encodeTransfer(to string, amount *big.Int) []byte {
	return encodeAddressAmount(selectorTransfer, to, amount)
}

func encodeAddressAmount(selectorHex, addr string, amount *big.Int) []byte {
	data := common.Hex2Bytes(selectorHex)
	data = append(data, common.LeftPadBytes(common.HexToAddress(addr).Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	return data
}
