package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_EveryChainHasUSDC(t *testing.T) {
	r, err := New(RegistryConfig{})
	require.NoError(t, err)

	for _, name := range r.Names() {
		_, err := r.Token(name, "USDC")
		assert.NoErrorf(t, err, "chain %s missing USDC", name)
	}
}

func TestNew_RPCOverride(t *testing.T) {
	r, err := New(RegistryConfig{RPCOverrides: map[string]string{"BASE": "https://base.internal.test"}})
	require.NoError(t, err)

	c, err := r.Get("base")
	require.NoError(t, err)
	assert.Equal(t, "https://base.internal.test", c.RPCURL)
}

func TestGet_UnknownChain(t *testing.T) {
	r, err := New(RegistryConfig{})
	require.NoError(t, err)

	_, err = r.Get("mars")
	require.Error(t, err)
}

func TestNames_StableOrder(t *testing.T) {
	r, err := New(RegistryConfig{})
	require.NoError(t, err)

	want := []string{"ethereum", "base", "polygon", "avalanche", "bsc", "arbitrum", "celo", "monad"}
	assert.Equal(t, want, r.Names())
}

func TestMonadAndCeloFlags(t *testing.T) {
	r, err := New(RegistryConfig{})
	require.NoError(t, err)

	monad, err := r.Get("monad")
	require.NoError(t, err)
	assert.Equal(t, "100000030", monad.DebridgeChainID)
	assert.False(t, monad.SquidSupported)

	celo, err := r.Get("celo")
	require.NoError(t, err)
	assert.Empty(t, celo.DebridgeChainID)
	assert.True(t, celo.SquidSupported)
}

func TestAllTokenSymbols_ContainsUSDC(t *testing.T) {
	r, err := New(RegistryConfig{})
	require.NoError(t, err)
	assert.Contains(t, r.AllTokenSymbols(), "USDC")
}

func TestVerifyBytecode_CachesPositiveResult(t *testing.T) {
	r, err := New(RegistryConfig{})
	require.NoError(t, err)

	calls := 0
	r.SetBytecodeVerifier(func(ctx context.Context, chain, address string) (bool, error) {
		calls++
		return true, nil
	})

	ok, err := r.VerifyBytecode(context.Background(), "base", "0xdead")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.VerifyBytecode(context.Background(), "base", "0xdead")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, calls, "second call should be served from cache")
}

func TestVerifyBytecode_NoVerifierConfigured(t *testing.T) {
	r, err := New(RegistryConfig{})
	require.NoError(t, err)

	_, err = r.VerifyBytecode(context.Background(), "base", "0xdead")
	require.Error(t, err)
}
