// Package executor owns the local fork of remote ledger state: it fetches
// the dependency closure of each submitted batch on demand, drives the
// recency-token clock, and runs batches sequentially through the execution
// engine.
package executor

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/solsim/solsim/bank"
	"github.com/solsim/solsim/log"
	"github.com/solsim/solsim/remote"
	"github.com/solsim/solsim/types"
)

// Executor is the single owner of the fork. Every operation takes the one
// exclusive lock for its whole duration, so a batch execution is atomic with
// respect to reads and to remote-binding swaps.
type Executor struct {
	mu sync.Mutex

	bank        *bank.Bank
	remote      remote.Client
	dialer      remote.Dialer
	fetchPolicy FetchPolicy
	faucet      solana.PrivateKey
	logger      *log.Logger
}

// Payer returns a copy of the faucet keypair seeded at genesis.
func (e *Executor) Payer() solana.PrivateKey {
	e.mu.Lock()
	defer e.mu.Unlock()
	payer := make(solana.PrivateKey, len(e.faucet))
	copy(payer, e.faucet)
	return payer
}

// GetAccount reads the fork. Nil means the key is absent; the remote binding
// is never touched.
func (e *Executor) GetAccount(key solana.PublicKey) (*types.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bank.GetAccount(key)
}

// GetAccounts reads the fork for each key, preserving order; absent keys
// yield nil entries.
func (e *Executor) GetAccounts(keys []solana.PublicKey) ([]*types.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	accounts := make([]*types.Account, len(keys))
	for i, key := range keys {
		account, err := e.bank.GetAccount(key)
		if err != nil {
			return nil, err
		}
		accounts[i] = account
	}
	return accounts, nil
}

// MinimumRentExemptBalance delegates to the engine's rent parameters.
func (e *Executor) MinimumRentExemptBalance(dataLen uint64) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bank.MinimumRentExemptBalance(dataLen)
}

// LatestBlockhash returns the engine's current recency token.
func (e *Executor) LatestBlockhash() solana.Hash {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bank.LastBlockhash()
}

// AdvanceClock moves the recency token forward and returns the new token.
// When requested is non-nil and differs from the current token it becomes
// the candidate; otherwise a fresh unique token is minted. One candidate is
// registered per slot of parent distance, so replayed clock traffic matches
// the engine's native cadence instead of jumping in one step.
func (e *Executor) AdvanceClock(requested *solana.Hash) solana.Hash {
	e.mu.Lock()
	defer e.mu.Unlock()

	distance := uint64(1)
	if e.bank.Slot() != 0 {
		distance = e.bank.Slot() - e.bank.ParentSlot()
	}

	for i := uint64(0); i < distance; i++ {
		candidate := e.bank.MintUniqueHash()
		if requested != nil && *requested != e.bank.LastBlockhash() {
			candidate = *requested
		}
		e.bank.AdvanceToBlockhash(candidate)
	}
	return e.bank.LastBlockhash()
}

// SetRPCConfig replaces the remote binding. The fork is untouched; only
// subsequent fetches use the new binding.
func (e *Executor) SetRPCConfig(endpoint string, commitment types.Commitment) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	client, err := e.dialer(endpoint, commitment)
	if err != nil {
		return err
	}
	e.remote = client
	e.logger.Info().Str("endpoint", endpoint).Str("commitment", string(commitment)).Msg("Remote binding replaced")
	return nil
}

// RPCConfig returns the current remote binding.
func (e *Executor) RPCConfig() types.RPCConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return types.RPCConfig{Endpoint: e.remote.Endpoint(), Commitment: e.remote.Commitment()}
}

// ExecuteTransactionBatch fetches the batch's dependency closure from the
// remote source, merges it into the fork, then executes the transactions in
// input order. Results are 1:1 with the batch. A remote failure fails the
// whole call with types.ErrUpstreamUnavailable and leaves the fork
// untouched; every ledger-semantic failure is a per-transaction result.
func (e *Executor) ExecuteTransactionBatch(ctx context.Context, batch []*solana.Transaction) ([]*types.ExecutionResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.fetchDependencyClosure(ctx, batch); err != nil {
		return nil, err
	}

	results := make([]*types.ExecutionResult, len(batch))
	for i, tx := range batch {
		results[i] = e.bank.ExecuteTransaction(tx)
		if results[i].Err != nil {
			e.logger.Debug().Int("index", i).Str("cause", results[i].Err.Error()).Msg("Transaction failed")
		}
	}
	return results, nil
}

// Close releases the executor's store.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bank.Close()
}
