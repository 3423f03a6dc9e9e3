package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentswarm.treasury/internal/registry"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	reg, err := registry.New(registry.RegistryConfig{})
	require.NoError(t, err)
	return NewRouter(reg)
}

func TestRouter_LiteralScenarios(t *testing.T) {
	r := newTestRouter(t)

	route := r.Select("base", "polygon", "USDC")
	assert.True(t, route.Available)
	assert.Equal(t, ProviderDebridge, route.Provider)

	route = r.Select("base", "celo", "USDC")
	assert.True(t, route.Available)
	assert.Equal(t, ProviderSquid, route.Provider)

	route = r.Select("avalanche", "monad", "USDC")
	assert.True(t, route.Available)
	assert.Equal(t, ProviderDebridge, route.Provider)

	route = r.Select("base", "base", "USDC")
	assert.True(t, route.Available)
	assert.Equal(t, ProviderDirect, route.Provider)

	route = r.Select("avalanche", "avalanche", "USDC")
	assert.True(t, route.Available)
	assert.Equal(t, ProviderDirect, route.Provider)
}

func TestRouter_Totality(t *testing.T) {
	// for every ordered pair where any provider supports both, Select
	// returns available=true with a concrete provider; every other pair is
	// reported unavailable.
	r := newTestRouter(t)
	names := r.Registry.Names()
	for _, src := range names {
		for _, dst := range names {
			srcInfo, err := r.Registry.Get(src)
			require.NoError(t, err)
			dstInfo, err := r.Registry.Get(dst)
			require.NoError(t, err)
			covered := src == dst ||
				(srcInfo.DebridgeChainID != "" && dstInfo.DebridgeChainID != "") ||
				(srcInfo.SquidSupported && dstInfo.SquidSupported)

			route := r.Select(src, dst, "USDC")
			if !covered {
				assert.False(t, route.Available, "expected %s->%s to be unroutable", src, dst)
				continue
			}
			assert.True(t, route.Available, "expected %s->%s to be routable", src, dst)
			assert.NotEmpty(t, route.Provider)
		}
	}
}

func TestRouter_UnknownChainUnavailable(t *testing.T) {
	r := newTestRouter(t)
	route := r.Select("base", "nope", "USDC")
	assert.False(t, route.Available)
	assert.NotEmpty(t, route.Reason)
}
