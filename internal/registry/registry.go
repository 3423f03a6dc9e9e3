// Package registry is the canonical catalog of chains, tokens, and bridge
// capability flags the rest of the core reads from. It never touches
// os.Getenv itself — RPCOverrides is handed in by config.Load(), which must
// run first.
package registry

import (
	"context"
	"sync"

	"agentswarm.treasury/internal/domainerrors"
)

// TokenInfo describes an ERC-20 token on one chain.
type TokenInfo struct {
	Symbol   string
	Address  string
	Decimals int
	Name     string
}

// ChainInfo is the full catalog entry for one chain.
type ChainInfo struct {
	Name             string
	ChainID          int64
	RPCURL           string
	NativeSymbol     string
	NativeDecimals   int
	Tokens           map[string]TokenInfo
	DisperseAvailable bool
	DebridgeChainID  string // empty means "no deBridge coverage"
	SquidSupported   bool
	MulticallAddress string // empty means "no multicall on this chain"
}

// BytecodeVerifier performs the getCode pre-flight from §4.1 and reports
// whether a contract is actually deployed at address on chain.
type BytecodeVerifier func(ctx context.Context, chain, address string) (bool, error)

// RegistryConfig is the explicit, caller-constructed input to New. It is
// never populated from the environment inside this package.
type RegistryConfig struct {
	RPCOverrides map[string]string // keyed by the chain's upper-case short name, e.g. "BASE"
}

// Registry is a read-mostly lookup surface, safe for concurrent reads after
// construction. The only mutation after New is the bytecode-verification
// cache, guarded by its own mutex.
type Registry struct {
	order  []string
	chains map[string]ChainInfo

	verifierMu sync.RWMutex
	verifier   BytecodeVerifier
	verifiedAt map[string]uint64 // "chain:address" of verified contracts; value is always 0, only presence is used
}

// New builds the catalog from the compiled-in table of eight chains,
// overlaid with cfg.RPCOverrides.
func New(cfg RegistryConfig) (*Registry, error) {
	chains := defaultChains()

	order := make([]string, 0, len(chains))
	byName := make(map[string]ChainInfo, len(chains))
	for _, c := range chains {
		if override, ok := cfg.RPCOverrides[chainEnvKey(c.Name)]; ok && override != "" {
			c.RPCURL = override
		}
		if _, ok := c.Tokens["USDC"]; !ok {
			return nil, domainerrors.ConfigError("chain "+c.Name+" missing required USDC token entry", nil)
		}
		order = append(order, c.Name)
		byName[c.Name] = c
	}

	return &Registry{
		order:      order,
		chains:     byName,
		verifiedAt: make(map[string]uint64),
	}, nil
}

// SetBytecodeVerifier wires the Treasury Engine's getCode check into the
// registry so distribution/sweep paths can gate on it.
func (r *Registry) SetBytecodeVerifier(v BytecodeVerifier) {
	r.verifierMu.Lock()
	defer r.verifierMu.Unlock()
	r.verifier = v
}

// VerifyBytecode runs the injected BytecodeVerifier (if any) and caches a
// positive result keyed by (chain, address). It never caches negative
// results — a contract that hasn't been deployed yet may be deployed later
// in the same process lifetime.
func (r *Registry) VerifyBytecode(ctx context.Context, chain, address string) (bool, error) {
	r.verifierMu.RLock()
	v := r.verifier
	r.verifierMu.RUnlock()
	if v == nil {
		return false, domainerrors.ConfigError("no bytecode verifier configured", nil)
	}

	key := chain + ":" + address
	r.verifierMu.RLock()
	if _, ok := r.verifiedAt[key]; ok {
		r.verifierMu.RUnlock()
		return true, nil
	}
	r.verifierMu.RUnlock()

	ok, err := v(ctx, chain, address)
	if err != nil || !ok {
		return false, err
	}

	r.verifierMu.Lock()
	r.verifiedAt[key] = 0
	r.verifierMu.Unlock()
	return true, nil
}

// Get returns the catalog entry for name, failing with ErrUnknownChain on miss.
func (r *Registry) Get(name string) (ChainInfo, error) {
	c, ok := r.chains[name]
	if !ok {
		return ChainInfo{}, domainerrors.ErrUnknownChain(name)
	}
	return c, nil
}

// Names returns chain names in stable, insertion order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Tokens returns the full token map for a chain.
func (r *Registry) Tokens(name string) (map[string]TokenInfo, error) {
	c, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return c.Tokens, nil
}

// Token looks up one token by symbol on one chain.
func (r *Registry) Token(name, symbol string) (TokenInfo, error) {
	c, err := r.Get(name)
	if err != nil {
		return TokenInfo{}, err
	}
	t, ok := c.Tokens[symbol]
	if !ok {
		return TokenInfo{}, domainerrors.ConfigError("unrecognized token "+symbol+" for chain "+name, nil)
	}
	return t, nil
}

// AllTokenSymbols returns the union of token symbols across every chain, in
// registry order, deduplicated.
func (r *Registry) AllTokenSymbols() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range r.order {
		for sym := range r.chains[name].Tokens {
			if !seen[sym] {
				seen[sym] = true
				out = append(out, sym)
			}
		}
	}
	return out
}

func chainEnvKey(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
