package types

import (
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable reports that the remote ledger source could not be
// reached or returned a malformed response. The whole batch call fails with
// this error and the fork is left untouched.
var ErrUpstreamUnavailable = errors.New("upstream ledger source unavailable")

// TxErrCode classifies why a transaction failed.
type TxErrCode string

const (
	// Rejected before execution: no fee charged, no state change.
	TxErrAccountNotFound         TxErrCode = "AccountNotFound"
	TxErrBlockhashNotFound       TxErrCode = "BlockhashNotFound"
	TxErrSignatureFailure        TxErrCode = "SignatureFailure"
	TxErrSanitizeFailure         TxErrCode = "SanitizeFailure"
	TxErrOversize                TxErrCode = "TransactionTooLarge"
	TxErrInsufficientFundsForFee TxErrCode = "InsufficientFundsForFee"

	// Executed and failed: the fee is charged, other mutations roll back.
	TxErrInstructionError TxErrCode = "InstructionError"
)

// InstrErrCode classifies an instruction-level failure.
type InstrErrCode string

const (
	InstrErrAccountAlreadyInUse        InstrErrCode = "AccountAlreadyInUse"
	InstrErrInsufficientFunds          InstrErrCode = "InsufficientFunds"
	InstrErrInvalidInstructionData     InstrErrCode = "InvalidInstructionData"
	InstrErrInvalidAccountDataLength   InstrErrCode = "InvalidAccountDataLength"
	InstrErrMissingRequiredSignature   InstrErrCode = "MissingRequiredSignature"
	InstrErrUnsupportedProgram         InstrErrCode = "UnsupportedProgram"
	InstrErrInvalidProgramForExecution InstrErrCode = "InvalidProgramForExecution"
	InstrErrNotEnoughAccountKeys       InstrErrCode = "NotEnoughAccountKeys"
)

// TransactionError is the typed failure cause inside an ExecutionResult.
type TransactionError struct {
	Code             TxErrCode    `json:"code"`
	InstructionIndex *uint8       `json:"instructionIndex,omitempty"`
	InstructionError InstrErrCode `json:"instructionError,omitempty"`
	Message          string       `json:"message,omitempty"`
}

func (e *TransactionError) Error() string {
	if e.Code == TxErrInstructionError && e.InstructionIndex != nil {
		return fmt.Sprintf("instruction %d failed: %s", *e.InstructionIndex, e.InstructionError)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return string(e.Code)
}

// NewTxError builds a whole-transaction failure.
func NewTxError(code TxErrCode, msg string) *TransactionError {
	return &TransactionError{Code: code, Message: msg}
}

// NewInstructionError builds a failure attributed to one instruction.
func NewInstructionError(index uint8, cause InstrErrCode) *TransactionError {
	return &TransactionError{
		Code:             TxErrInstructionError,
		InstructionIndex: &index,
		InstructionError: cause,
	}
}
