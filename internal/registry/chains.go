package registry

// defaultChains is the compiled-in table of the eight chains the swarm
// operates across. RPC URLs here are public fallbacks only — production
// deployments are expected to override every one of them via
// config.BlockchainConfig.RPCOverrides.
func defaultChains() []ChainInfo {
	return []ChainInfo{
		{
			Name:             "ethereum",
			ChainID:          1,
			RPCURL:           "https://eth.llamarpc.com",
			NativeSymbol:     "ETH",
			NativeDecimals:   18,
			DisperseAvailable: true,
			DebridgeChainID:  "1",
			SquidSupported:   true,
			MulticallAddress: "0xcA11bde05977b3631167028862bE2a173976CA11",
			Tokens: map[string]TokenInfo{
				"USDC": {Symbol: "USDC", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6, Name: "USD Coin"},
				"USDT": {Symbol: "USDT", Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6, Name: "Tether USD"},
			},
		},
		{
			Name:             "base",
			ChainID:          8453,
			RPCURL:           "https://mainnet.base.org",
			NativeSymbol:     "ETH",
			NativeDecimals:   18,
			DisperseAvailable: true,
			DebridgeChainID:  "8453",
			SquidSupported:   true,
			MulticallAddress: "0xcA11bde05977b3631167028862bE2a173976CA11",
			Tokens: map[string]TokenInfo{
				"USDC": {Symbol: "USDC", Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6, Name: "USD Coin"},
			},
		},
		{
			Name:             "polygon",
			ChainID:          137,
			RPCURL:           "https://polygon-rpc.com",
			NativeSymbol:     "POL",
			NativeDecimals:   18,
			DisperseAvailable: true,
			DebridgeChainID:  "137",
			SquidSupported:   true,
			MulticallAddress: "0xcA11bde05977b3631167028862bE2a173976CA11",
			Tokens: map[string]TokenInfo{
				"USDC": {Symbol: "USDC", Address: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", Decimals: 6, Name: "USD Coin"},
			},
		},
		{
			Name:             "avalanche",
			ChainID:          43114,
			RPCURL:           "https://api.avax.network/ext/bc/C/rpc",
			NativeSymbol:     "AVAX",
			NativeDecimals:   18,
			DisperseAvailable: true,
			DebridgeChainID:  "43114",
			SquidSupported:   true,
			MulticallAddress: "0xcA11bde05977b3631167028862bE2a173976CA11",
			Tokens: map[string]TokenInfo{
				"USDC": {Symbol: "USDC", Address: "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E", Decimals: 6, Name: "USD Coin"},
			},
		},
		{
			Name:             "bsc",
			ChainID:          56,
			RPCURL:           "https://bsc-dataseed.binance.org",
			NativeSymbol:     "BNB",
			NativeDecimals:   18,
			DisperseAvailable: true,
			DebridgeChainID:  "56",
			SquidSupported:   true,
			MulticallAddress: "0xcA11bde05977b3631167028862bE2a173976CA11",
			Tokens: map[string]TokenInfo{
				// Binance-Peg USDC really is 18 decimals on BSC, unlike every
				// other stable in this table. Deliberate, not a typo.
				"USDC": {Symbol: "USDC", Address: "0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d", Decimals: 18, Name: "USD Coin"},
			},
		},
		{
			Name:             "arbitrum",
			ChainID:          42161,
			RPCURL:           "https://arb1.arbitrum.io/rpc",
			NativeSymbol:     "ETH",
			NativeDecimals:   18,
			DisperseAvailable: true,
			DebridgeChainID:  "42161",
			SquidSupported:   true,
			MulticallAddress: "0xcA11bde05977b3631167028862bE2a173976CA11",
			Tokens: map[string]TokenInfo{
				"USDC": {Symbol: "USDC", Address: "0xaf88d065e77c8cC2239327C5EDb3A432268e5831", Decimals: 6, Name: "USD Coin"},
			},
		},
		{
			// No deBridge coverage: router rule 2 sends celo traffic to Squid.
			Name:             "celo",
			ChainID:          42220,
			RPCURL:           "https://forno.celo.org",
			NativeSymbol:     "CELO",
			NativeDecimals:   18,
			DisperseAvailable: false,
			DebridgeChainID:  "",
			SquidSupported:   true,
			Tokens: map[string]TokenInfo{
				"USDC": {Symbol: "USDC", Address: "0xcebA9300f2b948710d2653dD7B07f33A8B32118C", Decimals: 6, Name: "USD Coin"},
			},
		},
		{
			// Monad uses a synthetic deBridge chain id, not its EVM chain id,
			// and has no Squid coverage: router rule 3 forces deBridge.
			Name:             "monad",
			ChainID:          143,
			RPCURL:           "https://testnet-rpc.monad.xyz",
			NativeSymbol:     "MON",
			NativeDecimals:   18,
			DisperseAvailable: false,
			DebridgeChainID:  "100000030",
			SquidSupported:   false,
			Tokens: map[string]TokenInfo{
				"USDC": {Symbol: "USDC", Address: "0xf817257fed379853cDe0fa4F97AB987181B1E5Ea", Decimals: 6, Name: "USD Coin"},
			},
		},
	}
}
