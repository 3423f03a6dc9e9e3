package bridge

import "agentswarm.treasury/internal/registry"

// The *FeePct/*TimeSec constants are static per-provider estimates that
// Select puts on a BridgeRoute's EstFeePct/EstTimeSec; they are not updated
// from a provider's live Quote.
const (
	directFeePct    = 0.0
	directTimeSec   = 15
	debridgeFeePct  = 0.003
	debridgeTimeSec = 180
	squidFeePct     = 0.006
	squidTimeSec    = 240
)

// Router selects a bridge provider from the chain registry's capability
// flags. Pure: Select never performs I/O.
type Router struct {
	Registry *registry.Registry
}

func NewRouter(reg *registry.Registry) *Router {
	return &Router{Registry: reg}
}

// Select implements the decision table of §4.3.1:
//  1. src == dst -> direct.
//  2. either side lacks a deBridge id -> squid (the only provider that
//     covers it, e.g. Celo) if both sides are squid-supported, otherwise
//     unavailable (e.g. Celo <-> Monad).
//  3. either side isn't squid-supported -> debridge (e.g. Monad).
//  4. otherwise -> debridge, the lower-fee default.
func (r *Router) Select(src, dst, token string) BridgeRoute {
	if src == dst {
		return BridgeRoute{
			Provider: ProviderDirect, SrcChain: src, DstChain: dst,
			SrcToken: token, DstToken: token,
			EstFeePct: directFeePct, EstTimeSec: directTimeSec, Available: true,
		}
	}

	srcChain, err := r.Registry.Get(src)
	if err != nil {
		return unavailable(src, dst, token, err.Error())
	}
	dstChain, err := r.Registry.Get(dst)
	if err != nil {
		return unavailable(src, dst, token, err.Error())
	}

	hasDebridge := srcChain.DebridgeChainID != "" && dstChain.DebridgeChainID != ""
	bothSquid := srcChain.SquidSupported && dstChain.SquidSupported

	switch {
	case !hasDebridge && bothSquid:
		return route(ProviderSquid, src, dst, token, squidFeePct, squidTimeSec)
	case !hasDebridge && !bothSquid:
		return unavailable(src, dst, token, "neither deBridge nor Squid cover this pair")
	case !bothSquid:
		return route(ProviderDebridge, src, dst, token, debridgeFeePct, debridgeTimeSec)
	default:
		return route(ProviderDebridge, src, dst, token, debridgeFeePct, debridgeTimeSec)
	}
}

func route(p Provider, src, dst, token string, feePct float64, timeSec int) BridgeRoute {
	return BridgeRoute{
		Provider: p, SrcChain: src, DstChain: dst,
		SrcToken: token, DstToken: token,
		EstFeePct: feePct, EstTimeSec: timeSec, Available: true,
	}
}

func unavailable(src, dst, token, reason string) BridgeRoute {
	return BridgeRoute{
		Provider: "", SrcChain: src, DstChain: dst,
		SrcToken: token, DstToken: token,
		Available: false, Reason: reason,
	}
}
