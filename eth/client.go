package eth

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"

	"github.com/simular-fi/simular-go/types"
)

// Client wraps both rpc.Client and ethclient.Client for chain reads
type Client struct {
	Rpc *rpc.Client
	Eth *ethclient.Client
}

// NewClient initializes a new chain client with both RPC and ethclient
func NewClient(url string) (*Client, error) {
	rpcClient, err := rpc.Dial(url)
	if err != nil {
		return nil, err
	}

	ethClient, err := ethclient.Dial(url)
	if err != nil {
		rpcClient.Close()
		return nil, err
	}

	return &Client{
		Rpc: rpcClient,
		Eth: ethClient,
	}, nil
}

// Close shuts down both connections
func (c *Client) Close() {
	c.Eth.Close()
	c.Rpc.Close()
}

// LatestBlockNumber returns the remote's current head number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.Eth.BlockNumber(ctx)
}

// AccountAt fetches nonce, balance and code for addr at the given
// block, and hashes the code so the result can be staged directly.
func (c *Client) AccountAt(ctx context.Context, addr common.Address, blockNum uint64) (*types.AccountInfo, error) {
	bn := new(big.Int).SetUint64(blockNum)

	nonce, err := c.Eth.NonceAt(ctx, addr, bn)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce for %s: %v", addr.Hex(), err)
	}
	balance, err := c.Eth.BalanceAt(ctx, addr, bn)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance for %s: %v", addr.Hex(), err)
	}
	code, err := c.Eth.CodeAt(ctx, addr, bn)
	if err != nil {
		return nil, fmt.Errorf("failed to get code for %s: %v", addr.Hex(), err)
	}

	bal, overflow := uint256.FromBig(balance)
	if overflow {
		return nil, fmt.Errorf("balance for %s overflows 256 bits", addr.Hex())
	}
	return &types.AccountInfo{
		Nonce:    nonce,
		Balance:  bal,
		CodeHash: crypto.Keccak256Hash(code),
		Code:     code,
	}, nil
}

// StorageAt fetches one storage slot at the given block.
func (c *Client) StorageAt(ctx context.Context, addr common.Address, key common.Hash, blockNum uint64) (common.Hash, error) {
	bn := new(big.Int).SetUint64(blockNum)
	value, err := c.Eth.StorageAt(ctx, addr, key, bn)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get storage for %s at %s: %v", addr.Hex(), key.Hex(), err)
	}
	return common.BytesToHash(value), nil
}

// BlockHash fetches the header for number and returns its hash.
func (c *Client) BlockHash(ctx context.Context, number uint64) (common.Hash, error) {
	bn := new(big.Int).SetUint64(number)
	header, err := c.Eth.HeaderByNumber(ctx, bn)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get header %d: %v", number, err)
	}
	return header.Hash(), nil
}
