package bridge

import (
	"context"
	"math/big"
	"time"

	"agentswarm.treasury/internal/domainerrors"
	"agentswarm.treasury/internal/metrics"
)

const (
	// allowanceBufferNum/Den express the 2% buffer as an integer multiplier
	// (×102/100) so the approved amount never loses precision to float64.
	allowanceBufferNum = 102
	allowanceBufferDen = 100

	defaultPollInterval = 5 * time.Second
	defaultPollCeiling  = 300 * time.Second
)

// Executor drives one BridgeRoute's allowance->send->poll flow against the
// Adapter its provider resolves to. One Executor is bound to one
// (chain, account); callers are expected to route all sends for that account
// through a single txqueue.Queue so nonce order is never raced.
type Executor struct {
	Adapters     map[Provider]Adapter
	PollInterval time.Duration
	PollCeiling  time.Duration
	Now          func() time.Time
	sleep        func(time.Duration)
}

func NewExecutor(adapters map[Provider]Adapter) *Executor {
	return &Executor{
		Adapters:     adapters,
		PollInterval: defaultPollInterval,
		PollCeiling:  defaultPollCeiling,
		Now:          time.Now,
		sleep:        time.Sleep,
	}
}

// Run executes route for amount (token's smallest unit) using signer,
// returning the final Quote (carrying the order/quote id), the bridge
// transaction hash, and the terminal Status, or TimeoutUnknown once
// PollCeiling elapses without one.
func (e *Executor) Run(ctx context.Context, route BridgeRoute, amount *big.Int, req QuoteRequest, signer TxSigner) (Quote, string, Status, error) {
	if !route.Available {
		return Quote{}, "", "", domainerrors.ConfigError("route unavailable: "+route.Reason, nil)
	}
	if route.Provider == ProviderDirect {
		return Quote{}, "", StatusSuccess, nil
	}

	adapter, ok := e.Adapters[route.Provider]
	if !ok {
		return Quote{}, "", "", domainerrors.ConfigError("no adapter registered for provider "+string(route.Provider), nil)
	}

	req.Amount = amount
	req.SrcChain = route.SrcChain
	req.DstChain = route.DstChain
	req.Token = route.SrcToken
	req.Sender = signer.Address()

	quote, err := adapter.Quote(ctx, req)
	if err != nil {
		metrics.BridgeAttemptsTotal.WithLabelValues(string(route.Provider), "quote_unavailable").Inc()
		return Quote{}, "", "", domainerrors.QuoteUnavailable("quote request failed for "+string(route.Provider), err)
	}

	buffered := new(big.Int).Mul(quote.SrcAmount, big.NewInt(allowanceBufferNum))
	buffered = buffered.Div(buffered, big.NewInt(allowanceBufferDen))

	if _, err := signer.Approve(ctx, route.SrcChain, quote.SrcToken, quote.To, buffered); err != nil {
		metrics.BridgeAttemptsTotal.WithLabelValues(string(route.Provider), "allowance_failed").Inc()
		return quote, "", "", domainerrors.NetworkError("approve failed", err)
	}

	txHash, err := adapter.Send(ctx, quote, signer)
	if err != nil {
		metrics.BridgeAttemptsTotal.WithLabelValues(string(route.Provider), "send_failed").Inc()
		return quote, "", "", domainerrors.NetworkError("bridge send failed", err)
	}

	status, err := e.poll(ctx, route.Provider, adapter, quote)
	if err != nil {
		return quote, txHash, status, err
	}
	return quote, txHash, status, nil
}

func (e *Executor) poll(ctx context.Context, provider Provider, adapter Adapter, quote Quote) (Status, error) {
	start := e.Now()
	deadline := start.Add(e.PollCeiling)

	for {
		status, err := adapter.Poll(ctx, quote)
		if err != nil {
			return "", domainerrors.NetworkError("poll failed", err)
		}
		if status.Terminal() {
			metrics.BridgePollDuration.WithLabelValues(string(provider)).Observe(e.Now().Sub(start).Seconds())
			metrics.BridgeAttemptsTotal.WithLabelValues(string(provider), string(status)).Inc()
			return status, nil
		}

		if e.Now().After(deadline) {
			metrics.BridgeAttemptsTotal.WithLabelValues(string(provider), "timeout_unknown").Inc()
			return "", domainerrors.TimeoutUnknown("bridge poll exceeded " + e.PollCeiling.String() + "; tracking: " + quote.TrackingURL)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		e.sleep(e.PollInterval)
	}
}
