package server

import (
	"context"
	"encoding/base64"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/solsim/solsim/executor"
	"github.com/solsim/solsim/log"
	"github.com/solsim/solsim/types"
)

// Service is the JSON-RPC surface of the executor, one method per executor
// operation. Ledger-semantic failures never surface as RPC errors: they ride
// inside the execution results. RPC errors are reserved for malformed
// payloads and infrastructure failures such as an unreachable upstream.
type Service struct {
	executor *executor.Executor
	logger   *log.Logger
}

func NewService(exec *executor.Executor) *Service {
	return &Service{
		executor: exec,
		logger:   log.NewLogger("server"),
	}
}

// LatestBlockhash returns the current recency token, base58 encoded.
func (s *Service) LatestBlockhash() string {
	return s.executor.LatestBlockhash().String()
}

// AdvanceBlockhash advances the clock, optionally toward a caller-supplied
// token, and returns the new latest token.
func (s *Service) AdvanceBlockhash(hash *string) (string, error) {
	var requested *solana.Hash
	if hash != nil && *hash != "" {
		parsed, err := solana.HashFromBase58(*hash)
		if err != nil {
			return "", fmt.Errorf("invalid blockhash: %w", err)
		}
		requested = &parsed
	}
	return s.executor.AdvanceClock(requested).String(), nil
}

// SetRpcConfig replaces the remote binding used for fetches.
func (s *Service) SetRpcConfig(cfg types.RPCConfig) error {
	commitment, err := types.ParseCommitment(string(cfg.Commitment))
	if err != nil {
		return err
	}
	return s.executor.SetRPCConfig(cfg.Endpoint, commitment)
}

// RentExemptBalance returns the minimum balance for an account of the given
// data length.
func (s *Service) RentExemptBalance(dataLen uint64) uint64 {
	return s.executor.MinimumRentExemptBalance(dataLen)
}

// GetAccount reads one account from the fork; null when absent.
func (s *Service) GetAccount(key string) (*types.Account, error) {
	parsed, err := solana.PublicKeyFromBase58(key)
	if err != nil {
		return nil, fmt.Errorf("invalid account key: %w", err)
	}
	return s.executor.GetAccount(parsed)
}

// GetAccounts reads many accounts from the fork, order preserved, null per
// absent key.
func (s *Service) GetAccounts(keys []string) ([]*types.Account, error) {
	parsed := make([]solana.PublicKey, len(keys))
	for i, key := range keys {
		var err error
		parsed[i], err = solana.PublicKeyFromBase58(key)
		if err != nil {
			return nil, fmt.Errorf("invalid account key %q: %w", key, err)
		}
	}
	return s.executor.GetAccounts(parsed)
}

// ExecuteTransactionBatch executes base64 wire-format transactions in input
// order and returns one result per transaction.
func (s *Service) ExecuteTransactionBatch(ctx context.Context, encoded []string) ([]*types.ExecutionResult, error) {
	batch := make([]*solana.Transaction, len(encoded))
	for i, e := range encoded {
		raw, err := base64.StdEncoding.DecodeString(e)
		if err != nil {
			return nil, fmt.Errorf("transaction %d is not valid base64: %w", i, err)
		}
		tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
		if err != nil {
			return nil, fmt.Errorf("transaction %d does not deserialize: %w", i, err)
		}
		batch[i] = tx
	}

	s.logger.Debug().Int("transactions", len(batch)).Msg("Executing transaction batch")
	return s.executor.ExecuteTransactionBatch(ctx, batch)
}
