package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"agentswarm.treasury/internal/bridge"
	"agentswarm.treasury/internal/config"
)

func TestRunBridgeCtl_RequiresSrcAndDst(t *testing.T) {
	deps := bridgeCtlDeps{
		loadEnv: func() error { return nil },
		loadCfg: func() *config.Config { return &config.Config{} },
		prepare: func(cfg *config.Config) (*bridge.Router, *bridge.Executor, bridge.TxSigner, error) { return nil, nil, nil, nil },
	}
	err := runBridgeCtl([]string{"-dst", "base"}, deps)
	assert.Error(t, err)
}

func TestRunBridgeCtl_RequiresPositiveAmount(t *testing.T) {
	deps := bridgeCtlDeps{
		loadEnv: func() error { return nil },
		loadCfg: func() *config.Config { return &config.Config{} },
		prepare: func(cfg *config.Config) (*bridge.Router, *bridge.Executor, bridge.TxSigner, error) { return nil, nil, nil, nil },
	}
	err := runBridgeCtl([]string{"-src", "base", "-dst", "celo", "-amount", "0"}, deps)
	assert.Error(t, err)
}

func TestDefaultBridgeCtlDeps_WiresAllFields(t *testing.T) {
	deps := defaultBridgeCtlDeps()
	assert.NotNil(t, deps.prepare)
	assert.NotNil(t, deps.loadCfg)
	assert.NotNil(t, deps.loadEnv)
}
