package walletledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "test test test test test test test test test test test junk"

func TestDerive_DeterministicAndKnownVector(t *testing.T) {
	m1, err := Derive(testMnemonic, 3, []string{"sys0", "sys1", "sys2"})
	require.NoError(t, err)
	m2, err := Derive(testMnemonic, 3, []string{"sys0", "sys1", "sys2"})
	require.NoError(t, err)
	assert.Equal(t, m1, m2, "derivation must be byte-for-byte deterministic")

	assert.Equal(t, "1.0", m1.Version)
	assert.Len(t, m1.Wallets, 3)

	// The canonical m/44'/60'/0'/0/{0,1,2} addresses for this well-known
	// test mnemonic (the same one hardhat/anvil ship as their default).
	want := []string{
		"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		"0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		"0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC",
	}
	for i, w := range want {
		assert.Equal(t, w, m1.Wallets[i].Address)
	}

	assert.Equal(t, TypeSystem, m1.Wallets[0].Type)
	assert.Equal(t, "sys0", m1.Wallets[0].Name)
}

func TestDerive_UserAgentFallbackNaming(t *testing.T) {
	m, err := Derive(testMnemonic, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, "kk-agent-000", m.Wallets[0].Name)
	assert.Equal(t, TypeUser, m.Wallets[0].Type)
	assert.Equal(t, "kk-agent-001", m.Wallets[1].Name)
}

func TestDerive_RejectsInvalidMnemonic(t *testing.T) {
	_, err := Derive("not a valid mnemonic at all", 1, nil)
	assert.Error(t, err)
}

func TestDerive_RejectsTooManySystemNames(t *testing.T) {
	_, err := Derive(testMnemonic, 1, []string{"a", "b"})
	assert.Error(t, err)
}

func TestDeriveRelays_IndexOffsetAndDistinctAddresses(t *testing.T) {
	manifest, err := Derive(testMnemonic, 3, []string{"sys0", "sys1", "sys2"})
	require.NoError(t, err)

	relays, err := DeriveRelays(testMnemonic, manifest)
	require.NoError(t, err)
	require.Len(t, relays.Wallets, 3)

	for i, r := range relays.Wallets {
		assert.Equal(t, manifest.Wallets[i].Index+100, r.Index)
		assert.Equal(t, manifest.Wallets[i].Address, r.MainAddress)
		assert.NotEqual(t, r.MainAddress, r.Address, "relay key must never equal the main key")
	}
	assert.Equal(t, uint32(100), relays.RelayIndexOffset)
}

func TestPrivateKeyAt_MatchesDerivedAddress(t *testing.T) {
	priv, err := PrivateKeyAt(testMnemonic, 0)
	require.NoError(t, err)
	require.NotNil(t, priv)
}
