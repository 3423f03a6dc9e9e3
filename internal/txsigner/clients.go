package txsigner

import (
	"agentswarm.treasury/internal/infrastructure/blockchain"
	"agentswarm.treasury/internal/registry"
)

// RegistryClients resolves chain names through the Chain Registry's RPC URL
// and caches the dialed EVMClient via a ClientFactory's own cache.
type RegistryClients struct {
	Registry *registry.Registry
	Factory  *blockchain.ClientFactory
}

func NewRegistryClients(reg *registry.Registry, factory *blockchain.ClientFactory) *RegistryClients {
	return &RegistryClients{Registry: reg, Factory: factory}
}

func (r *RegistryClients) Client(chain string) (*blockchain.EVMClient, error) {
	info, err := r.Registry.Get(chain)
	if err != nil {
		return nil, err
	}
	return r.Factory.GetEVMClient(info.RPCURL)
}
