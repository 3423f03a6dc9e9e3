package treasury

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"agentswarm.treasury/internal/infrastructure/blockchain"
	"agentswarm.treasury/internal/registry"
)

// multicallABI is the standard Multicall3 aggregate3 surface, present at the
// same CREATE2 address on every chain that lists a MulticallAddress.
const multicallABI = `[
  {"name":"aggregate3","type":"function","stateMutability":"view",
   "inputs":[{"name":"calls","type":"tuple[]","components":[
     {"name":"target","type":"address"},
     {"name":"allowFailure","type":"bool"},
     {"name":"callData","type":"bytes"}]}],
   "outputs":[{"name":"returnData","type":"tuple[]","components":[
     {"name":"success","type":"bool"},
     {"name":"returnData","type":"bytes"}]}]}
]`

var parsedMulticallABI = mustParseABI(multicallABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("treasury: invalid multicall ABI: " + err.Error())
	}
	return parsed
}

type multicall3Call struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

type multicall3Result struct {
	Success    bool
	ReturnData []byte
}

const balanceOfSelector = "70a08231"

// fetchNativeBalanceInv is a seam over EVMClient.GetBalance so tests can
// drive ReadBalances without a live RPC connection.
var fetchNativeBalanceInv = func(ctx context.Context, client *blockchain.EVMClient, addr string) (*big.Int, error) {
	return client.GetBalance(ctx, addr)
}

// Inventory reads native + per-token balances for a set of addresses across
// chains, preferring a chain's multicall contract (one RPC round trip) and
// falling back to N individual CallContracts when no MulticallAddress is
// configured for that chain.
type Inventory struct {
	Registry *registry.Registry
	Clients  interface {
		Client(chain string) (*blockchain.EVMClient, error)
	}
}

func NewInventory(reg *registry.Registry, clients interface {
	Client(chain string) (*blockchain.EVMClient, error)
}) *Inventory {
	return &Inventory{Registry: reg, Clients: clients}
}

// ReadBalances reads native + token balances for every address on every
// chain named, returning one BalanceRow per (address, chain) pair.
func (inv *Inventory) ReadBalances(ctx context.Context, addrs []string, chains []string) ([]BalanceRow, error) {
	var rows []BalanceRow
	for _, chainName := range chains {
		info, err := inv.Registry.Get(chainName)
		if err != nil {
			return nil, err
		}
		client, err := inv.Clients.Client(chainName)
		if err != nil {
			return nil, err
		}

		for _, addr := range addrs {
			row, err := inv.readOne(ctx, client, info, addr)
			if err != nil {
				return nil, fmt.Errorf("treasury: reading balances for %s on %s: %w", addr, chainName, err)
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (inv *Inventory) readOne(ctx context.Context, client *blockchain.EVMClient, info registry.ChainInfo, addr string) (BalanceRow, error) {
	row := BalanceRow{Name: addr, Address: addr, Chain: info.Name, Tokens: map[string]string{}}

	native, err := fetchNativeBalanceInv(ctx, client, addr)
	if err != nil {
		return row, err
	}
	row.Native = native.String()

	if info.MulticallAddress != "" && len(info.Tokens) > 0 {
		balances, err := inv.readViaMulticall(ctx, client, info, addr)
		if err != nil {
			return row, err
		}
		row.Tokens = balances
	} else {
		for sym, tok := range info.Tokens {
			bal, err := client.GetTokenBalance(ctx, tok.Address, addr)
			if err != nil {
				return row, err
			}
			row.Tokens[sym] = bal.String()
		}
	}

	if native.Sign() > 0 {
		row.Funded = true
	}
	for _, bal := range row.Tokens {
		if bal != "0" && bal != "" {
			row.Funded = true
		}
	}
	return row, nil
}

// readViaMulticall batches every token's balanceOf(addr) call into one
// aggregate3 round trip.
func (inv *Inventory) readViaMulticall(ctx context.Context, client *blockchain.EVMClient, info registry.ChainInfo, addr string) (map[string]string, error) {
	symbols := make([]string, 0, len(info.Tokens))
	calls := make([]multicall3Call, 0, len(info.Tokens))
	for sym, tok := range info.Tokens {
		symbols = append(symbols, sym)
		data := append(common.Hex2Bytes(balanceOfSelector), common.LeftPadBytes(common.HexToAddress(addr).Bytes(), 32)...)
		calls = append(calls, multicall3Call{
			Target:       common.HexToAddress(tok.Address),
			AllowFailure: true,
			CallData:     data,
		})
	}

	packed, err := parsedMulticallABI.Pack("aggregate3", calls)
	if err != nil {
		return nil, fmt.Errorf("packing aggregate3 call: %w", err)
	}

	raw, err := client.CallView(ctx, info.MulticallAddress, packed)
	if err != nil {
		return nil, fmt.Errorf("multicall aggregate3 call: %w", err)
	}

	var results []multicall3Result
	if err := parsedMulticallABI.UnpackIntoInterface(&results, "aggregate3", raw); err != nil {
		return nil, fmt.Errorf("unpacking aggregate3 result: %w", err)
	}

	out := make(map[string]string, len(symbols))
	for i, sym := range symbols {
		if i >= len(results) || !results[i].Success || len(results[i].ReturnData) == 0 {
			out[sym] = "0"
			continue
		}
		out[sym] = new(big.Int).SetBytes(results[i].ReturnData).String()
	}
	return out, nil
}
