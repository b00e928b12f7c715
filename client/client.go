// Package client is the typed blocking mirror of the executor API.
package client

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gagliardetto/solana-go"

	"github.com/solsim/solsim/types"
)

const (
	DefaultServerURL   = "http://127.0.0.1:3030"
	DefaultRPCEndpoint = "https://api.mainnet-beta.solana.com"
)

type Client struct {
	rpc *rpc.Client
}

// Dial connects to an executor server.
func Dial(rawurl string) (*Client, error) {
	inner, err := rpc.Dial(rawurl)
	if err != nil {
		return nil, err
	}
	return &Client{rpc: inner}, nil
}

// New wraps an established RPC connection; tests use it with an in-process
// server.
func New(inner *rpc.Client) *Client {
	return &Client{rpc: inner}
}

func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	var encoded string
	if err := c.rpc.CallContext(ctx, &encoded, "sandbox_latestBlockhash"); err != nil {
		return solana.Hash{}, err
	}
	return solana.HashFromBase58(encoded)
}

func (c *Client) AdvanceBlockhash(ctx context.Context, hash *solana.Hash) (solana.Hash, error) {
	var requested *string
	if hash != nil {
		encoded := hash.String()
		requested = &encoded
	}
	var result string
	if err := c.rpc.CallContext(ctx, &result, "sandbox_advanceBlockhash", requested); err != nil {
		return solana.Hash{}, err
	}
	return solana.HashFromBase58(result)
}

func (c *Client) SetRPCConfig(ctx context.Context, cfg types.RPCConfig) error {
	return c.rpc.CallContext(ctx, nil, "sandbox_setRpcConfig", cfg)
}

func (c *Client) RentExemptBalance(ctx context.Context, dataLen uint64) (uint64, error) {
	var balance uint64
	err := c.rpc.CallContext(ctx, &balance, "sandbox_rentExemptBalance", dataLen)
	return balance, err
}

func (c *Client) GetAccount(ctx context.Context, key solana.PublicKey) (*types.Account, error) {
	var account *types.Account
	err := c.rpc.CallContext(ctx, &account, "sandbox_getAccount", key.String())
	return account, err
}

func (c *Client) GetAccounts(ctx context.Context, keys []solana.PublicKey) ([]*types.Account, error) {
	encoded := make([]string, len(keys))
	for i, key := range keys {
		encoded[i] = key.String()
	}
	var accounts []*types.Account
	err := c.rpc.CallContext(ctx, &accounts, "sandbox_getAccounts", encoded)
	return accounts, err
}

func (c *Client) ExecuteTransactionBatch(ctx context.Context, batch []*solana.Transaction) ([]*types.ExecutionResult, error) {
	encoded := make([]string, len(batch))
	for i, tx := range batch {
		raw, err := tx.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("serialize transaction %d: %w", i, err)
		}
		encoded[i] = base64.StdEncoding.EncodeToString(raw)
	}
	var results []*types.ExecutionResult
	err := c.rpc.CallContext(ctx, &results, "sandbox_executeTransactionBatch", encoded)
	return results, err
}
