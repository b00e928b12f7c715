// Package remote is the read-only client for the live ledger the sandbox
// forks from. Only multi-get by key is needed; the commitment level is fixed
// per binding and swapped together with the endpoint.
package remote

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/solsim/solsim/types"
)

// Client is the remote ledger read interface. Implementations return one
// entry per requested key, nil where the remote reports the key absent —
// absence is a valid state (the account may be about to be created locally).
type Client interface {
	GetMultipleAccounts(ctx context.Context, keys []solana.PublicKey) ([]*types.Account, error)
	Endpoint() string
	Commitment() types.Commitment
}

// Dialer builds a Client for an (endpoint, commitment) binding. The executor
// holds one so the binding can be swapped without rebuilding the executor,
// and so tests can inject fakes.
type Dialer func(endpoint string, commitment types.Commitment) (Client, error)

type rpcClient struct {
	endpoint   string
	commitment types.Commitment
	inner      *solanarpc.Client
}

// Dial creates a JSON-RPC backed client against endpoint.
func Dial(endpoint string, commitment types.Commitment) (Client, error) {
	if _, err := types.ParseCommitment(string(commitment)); err != nil {
		return nil, err
	}
	return &rpcClient{
		endpoint:   endpoint,
		commitment: commitment,
		inner:      solanarpc.New(endpoint),
	}, nil
}

func (c *rpcClient) Endpoint() string { return c.endpoint }

func (c *rpcClient) Commitment() types.Commitment { return c.commitment }

func (c *rpcClient) GetMultipleAccounts(ctx context.Context, keys []solana.PublicKey) ([]*types.Account, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	out, err := c.inner.GetMultipleAccountsWithOpts(ctx, keys, &solanarpc.GetMultipleAccountsOpts{
		Commitment: rpcCommitment(c.commitment),
	})
	if err != nil {
		return nil, fmt.Errorf("get %d accounts from %s: %w", len(keys), c.endpoint, err)
	}
	if out == nil || len(out.Value) != len(keys) {
		return nil, fmt.Errorf("remote returned %d accounts for %d keys", len(out.Value), len(keys))
	}

	accounts := make([]*types.Account, len(keys))
	for i, info := range out.Value {
		if info == nil {
			continue
		}
		var data []byte
		if info.Data != nil {
			data = info.Data.GetBinary()
		}
		var rentEpoch uint64
		if info.RentEpoch != nil {
			rentEpoch = info.RentEpoch.Uint64()
		}
		accounts[i] = &types.Account{
			Lamports:   info.Lamports,
			Owner:      info.Owner,
			Data:       data,
			Executable: info.Executable,
			RentEpoch:  rentEpoch,
		}
	}
	return accounts, nil
}

func rpcCommitment(c types.Commitment) solanarpc.CommitmentType {
	switch c {
	case types.CommitmentFinalized:
		return solanarpc.CommitmentFinalized
	case types.CommitmentConfirmed:
		return solanarpc.CommitmentConfirmed
	default:
		return solanarpc.CommitmentProcessed
	}
}
