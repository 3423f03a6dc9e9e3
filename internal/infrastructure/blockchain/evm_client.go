package blockchain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// callViewFunc is the low-level read-only call hook used by EVMClient.CallView.
// Production clients route it through the underlying ethclient; tests inject
// a deterministic stand-in via NewEVMClientWithCallView.
type callViewFunc func(ctx context.Context, to string, data []byte) ([]byte, error)

// EVMClient provides EVM blockchain interaction
type EVMClient struct {
	client   *ethclient.Client
	chainID  *big.Int
	rpcURL   string
	callView callViewFunc
}

// NewEVMClient creates a new EVM client
func NewEVMClient(rpcURL string) (*EVMClient, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, err
	}

	chainID, err := client.ChainID(context.Background())
	if err != nil {
		return nil, err
	}

	c := &EVMClient{
		client:  client,
		chainID: chainID,
		rpcURL:  rpcURL,
	}
	c.callView = c.callContract
	return c, nil
}

// NewEVMClientWithCallView builds an EVMClient around an injected read-only
// call hook, bypassing ethclient.Dial entirely. Used by tests and by callers
// that already own a transport (e.g. a multicall-batched RPC client).
func NewEVMClientWithCallView(chainID *big.Int, callView callViewFunc) *EVMClient {
	if chainID == nil {
		chainID = big.NewInt(1)
	}
	return &EVMClient{chainID: chainID, callView: callView}
}

// ChainID returns the chain ID
func (c *EVMClient) ChainID() *big.Int {
	return c.chainID
}

// GetBalance gets the native token balance of an address
func (c *EVMClient) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	addr := common.HexToAddress(address)
	return c.client.BalanceAt(ctx, addr, nil)
}

// GetTokenBalance gets the ERC20 token balance of an address
func (c *EVMClient) GetTokenBalance(ctx context.Context, tokenAddress, ownerAddress string) (*big.Int, error) {
	owner := common.HexToAddress(ownerAddress)

	// balanceOf(address) selector: 0x70a08231
	data := append(common.Hex2Bytes("70a08231"), common.LeftPadBytes(owner.Bytes(), 32)...)

	result, err := c.CallView(ctx, tokenAddress, data)
	if err != nil {
		return nil, err
	}

	return new(big.Int).SetBytes(result), nil
}

// CallView performs a read-only contract call, routed through the injected
// callView hook when present (test/multicall paths) or the live ethclient
// otherwise.
func (c *EVMClient) CallView(ctx context.Context, to string, data []byte) ([]byte, error) {
	if c.callView != nil {
		return c.callView(ctx, to, data)
	}
	return c.callContract(ctx, to, data)
}

func (c *EVMClient) callContract(ctx context.Context, to string, data []byte) ([]byte, error) {
	addr := common.HexToAddress(to)
	msg := ethereum.CallMsg{To: &addr, Data: data}
	return c.client.CallContract(ctx, msg, nil)
}

// GetCode returns the deployed bytecode at an address. An empty result means
// no contract is deployed there — callers must treat that as BytecodeMissing
// before dispatching any batch-target call.
func (c *EVMClient) GetCode(ctx context.Context, address string) ([]byte, error) {
	addr := common.HexToAddress(address)
	return c.client.CodeAt(ctx, addr, nil)
}

// GetTransaction gets transaction details
func (c *EVMClient) GetTransaction(ctx context.Context, txHash string) (*types.Transaction, bool, error) {
	hash := common.HexToHash(txHash)
	return c.client.TransactionByHash(ctx, hash)
}

// GetTransactionReceipt gets transaction receipt
func (c *EVMClient) GetTransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	hash := common.HexToHash(txHash)
	return c.client.TransactionReceipt(ctx, hash)
}

// GetBlockNumber gets the latest block number
func (c *EVMClient) GetBlockNumber(ctx context.Context) (uint64, error) {
	return c.client.BlockNumber(ctx)
}

// EstimateGas estimates gas for a transaction
func (c *EVMClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return c.client.EstimateGas(ctx, msg)
}

// PendingNonceAt returns the next nonce to use, including pending transactions.
func (c *EVMClient) PendingNonceAt(ctx context.Context, address string) (uint64, error) {
	return c.client.PendingNonceAt(ctx, common.HexToAddress(address))
}

// NonceAt returns the confirmed (latest-block) nonce for an address.
func (c *EVMClient) NonceAt(ctx context.Context, address string) (uint64, error) {
	return c.client.NonceAt(ctx, common.HexToAddress(address), nil)
}

// SuggestGasTipCap proxies the client's priority-fee suggestion, used by the
// nonce-clearing protocol to pick an aggressively higher tip.
func (c *EVMClient) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return c.client.SuggestGasTipCap(ctx)
}

// SendTransaction broadcasts a signed transaction.
func (c *EVMClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return c.client.SendTransaction(ctx, tx)
}

// Underlying exposes the raw ethclient.Client for callers needing
// bind.ContractBackend (e.g. accounts/abi/bind transactors).
func (c *EVMClient) Underlying() *ethclient.Client {
	return c.client
}

// Close closes the client connection
func (c *EVMClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
