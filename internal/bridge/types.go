// Package bridge selects a cross-chain provider for a (source, destination,
// token) pair and drives the two-step allowance→send→poll flow against it.
package bridge

import (
	"context"
	"math/big"
)

// Provider identifies which adapter a BridgeRoute was resolved to.
type Provider string

const (
	ProviderDirect   Provider = "direct"
	ProviderDebridge Provider = "debridge"
	ProviderSquid    Provider = "squid"
)

// BridgeRoute is the Router's pure output: a provider choice plus estimates.
// Not persisted — consumed immediately by the Executor.
type BridgeRoute struct {
	Provider   Provider
	SrcChain   string
	DstChain   string
	SrcToken   string
	DstToken   string
	EstFeePct  float64
	EstTimeSec int
	Available  bool
	Reason     string // set when Available is false
}

// QuoteRequest is the provider-agnostic ask handed to an Adapter.
type QuoteRequest struct {
	SrcChain string
	DstChain string
	Token    string
	Amount   *big.Int // requested amount, token's smallest unit
	Sender   string
	Receiver string
}

// Quote is a provider-opaque blob: a call target, calldata, a native value,
// the amount the provider actually needs pulled via allowance (which may
// exceed the requested amount by a protocol fee), and an id used to poll
// status later.
type Quote struct {
	Provider     Provider
	To           string
	Data         []byte
	Value        *big.Int
	SrcAmount    *big.Int // amount the provider will pull via allowance/transferFrom
	SrcToken     string
	OrderOrQuote string
	TrackingURL  string
}

// Status is the provider-neutral outcome of a Poll call.
type Status string

const (
	StatusPending        Status = "pending"
	StatusSuccess        Status = "success"
	StatusRefund         Status = "refund"
	StatusCancelled      Status = "cancelled"
	StatusPartialSuccess Status = "partial_success"
	StatusNeedsGas       Status = "needs_gas"
)

func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusRefund, StatusCancelled, StatusPartialSuccess, StatusNeedsGas:
		return true
	default:
		return false
	}
}

// TxSigner is the minimal capability the Executor needs from a wallet: sign
// and broadcast a contract call, returning the transaction hash. Concrete implementations wrap an *ecdsa.PrivateKey
// and an EVMClient; kept as an interface here so the executor and its tests
// never depend on a live chain.
type TxSigner interface {
	Address() string
	Approve(ctx context.Context, chain, token, spender string, amount *big.Int) (txHash string, err error)
	Send(ctx context.Context, chain, to string, data []byte, value *big.Int) (txHash string, err error)
}

// Adapter is the provider-neutral surface the Router's chosen provider is
// driven through. deBridge and Squid each implement it; their HTTP payload
// shapes are an opaque contract private to the adapter.
type Adapter interface {
	Quote(ctx context.Context, req QuoteRequest) (Quote, error)
	Send(ctx context.Context, q Quote, signer TxSigner) (txHash string, err error)
	Poll(ctx context.Context, q Quote) (Status, error)
}
