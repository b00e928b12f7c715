package types

import (
	"github.com/gagliardetto/solana-go"
)

// ExecutionResult is the per-transaction outcome of a batch execution.
// A nil Err means the transaction executed successfully; ledger-semantic
// failures ride in Err and are never surfaced as transport errors.
type ExecutionResult struct {
	Signature            solana.Signature   `json:"signature"`
	Slot                 uint64             `json:"slot"`
	BlockTime            int64              `json:"blockTime"`
	Err                  *TransactionError  `json:"err,omitempty"`
	Fee                  uint64             `json:"fee"`
	PreBalances          []uint64           `json:"preBalances"`
	PostBalances         []uint64           `json:"postBalances"`
	PreTokenBalances     []TokenBalance     `json:"preTokenBalances,omitempty"`
	PostTokenBalances    []TokenBalance     `json:"postTokenBalances,omitempty"`
	InnerInstructions    []InnerInstruction `json:"innerInstructions,omitempty"`
	LogMessages          []string           `json:"logMessages"`
	ComputeUnitsConsumed uint64             `json:"computeUnitsConsumed"`
}

// TokenBalance is a token-account balance snapshot taken before or after a
// transaction, for accounts owned by the token utility program.
type TokenBalance struct {
	AccountIndex uint16           `json:"accountIndex"`
	Mint         solana.PublicKey `json:"mint"`
	Owner        solana.PublicKey `json:"owner"`
	Amount       uint64           `json:"amount"`
	Decimals     uint8            `json:"decimals"`
}

// InnerInstruction is one pruned inner-instruction trace: a top-level
// instruction index plus the instructions it invoked. Entries with no
// invocations are dropped from the result.
type InnerInstruction struct {
	Index        uint8                        `json:"index"`
	Instructions []solana.CompiledInstruction `json:"instructions"`
}
