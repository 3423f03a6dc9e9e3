package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"
)

// dialEVMClient and getClientChainID are var-seams so tests can exercise the
// cache-miss construction path without a live RPC endpoint.
var (
	dialEVMClient    = ethclient.Dial
	getClientChainID = func(c *ethclient.Client, ctx context.Context) (*big.Int, error) {
		return c.ChainID(ctx)
	}

	// beforeGetEVMClientWriteLockHook runs right before GetEVMClient acquires
	// its write lock, between the read-lock miss and the double-check. Tests
	// use it to simulate a concurrent RegisterEVMClient racing the dial.
	beforeGetEVMClientWriteLockHook = func(rpcURL string) {}
)

// ClientFactory manages blockchain clients
type ClientFactory struct {
	evmClients    map[string]*EVMClient
	solanaClients map[string]interface{}
	mu            sync.RWMutex
}

// NewClientFactory creates a new client factory
func NewClientFactory() *ClientFactory {
	return &ClientFactory{
		evmClients:    make(map[string]*EVMClient),
		solanaClients: make(map[string]interface{}),
	}
}

// GetEVMClient returns an EVM client for the given RPC URL
// If a client already exists for the URL, it returns the cached client
func (f *ClientFactory) GetEVMClient(rpcURL string) (*EVMClient, error) {
	f.mu.RLock()
	client, ok := f.evmClients[rpcURL]
	f.mu.RUnlock()
	if ok {
		return client, nil
	}

	beforeGetEVMClientWriteLockHook(rpcURL)

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double check
	if client, ok := f.evmClients[rpcURL]; ok {
		return client, nil
	}

	rawClient, err := dialEVMClient(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create EVM client: %w", err)
	}

	chainID, err := getClientChainID(rawClient, context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to create EVM client: %w", err)
	}

	newClient := &EVMClient{client: rawClient, chainID: chainID, rpcURL: rpcURL}
	newClient.callView = newClient.callContract

	f.evmClients[rpcURL] = newClient
	return newClient, nil
}

// RegisterEVMClient injects/overrides cached client for a specific rpcURL.
// Useful for deterministic unit tests.
func (f *ClientFactory) RegisterEVMClient(rpcURL string, client *EVMClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evmClients[rpcURL] = client
}
