package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentswarm.treasury/internal/config"
	"agentswarm.treasury/internal/treasury"
)

func TestParseBudgets(t *testing.T) {
	budgets, err := parseBudgets("base=500, celo=120.5,polygon=10")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"base": 500, "celo": 120.5, "polygon": 10}, budgets)
}

func TestParseBudgets_Empty(t *testing.T) {
	budgets, err := parseBudgets("")
	require.NoError(t, err)
	assert.Empty(t, budgets)
}

func TestParseBudgets_MalformedEntry(t *testing.T) {
	_, err := parseBudgets("base")
	assert.Error(t, err)
}

func TestParseBudgets_MalformedAmount(t *testing.T) {
	_, err := parseBudgets("base=notanumber")
	assert.Error(t, err)
}

func TestLoadOrDeriveManifest_DerivesAndPersistsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	manifest, err := loadOrDeriveManifest(path, "test test test test test test test test test test test junk", 3)
	require.NoError(t, err)
	assert.Len(t, manifest.Wallets, 3)
	assert.FileExists(t, path)
}

func TestLoadOrDeriveManifest_ReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	first, err := loadOrDeriveManifest(path, "test test test test test test test test test test test junk", 2)
	require.NoError(t, err)

	second, err := loadOrDeriveManifest(path, "test test test test test test test test test test test junk", 5)
	require.NoError(t, err)
	assert.Equal(t, first.Wallets, second.Wallets) // re-derivation with a different count is ignored once persisted
}

func TestRunTreasuryCtl_RequiresBudgets(t *testing.T) {
	deps := treasuryCtlDeps{
		loadEnv: func() error { return nil },
		loadCfg: func() *config.Config { return &config.Config{} },
		prepare: func(cfg *config.Config) (*treasury.Treasury, error) { return nil, nil },
	}
	err := runTreasuryCtl([]string{"-wallets-file", filepath.Join(t.TempDir(), "w.json")}, deps)
	assert.Error(t, err)
}

func TestRunTreasuryCtl_RequiresRecoveryAddrWhenSweeping(t *testing.T) {
	deps := treasuryCtlDeps{
		loadEnv: func() error { return nil },
		loadCfg: func() *config.Config { return &config.Config{} },
		prepare: func(cfg *config.Config) (*treasury.Treasury, error) { return nil, nil },
	}
	err := runTreasuryCtl([]string{"-budgets", "base=10", "-sweep"}, deps)
	assert.Error(t, err)
}

func TestDefaultTreasuryCtlDeps_WiresAllFields(t *testing.T) {
	deps := defaultTreasuryCtlDeps()
	assert.NotNil(t, deps.prepare)
	assert.NotNil(t, deps.loadCfg)
	assert.NotNil(t, deps.loadEnv)
}
