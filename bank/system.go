package bank

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/solsim/solsim/types"
)

// System program instruction discriminants (bincode u32, little endian).
const (
	systemInstrCreateAccount uint32 = 0
	systemInstrAssign        uint32 = 1
	systemInstrTransfer      uint32 = 2
	systemInstrAllocate      uint32 = 8
)

type systemCreateAccountData struct {
	Lamports uint64
	Space    uint64
	Owner    solana.PublicKey
}

type systemAssignData struct {
	Owner solana.PublicKey
}

type systemTransferData struct {
	Lamports uint64
}

type systemAllocateData struct {
	Space uint64
}

func processSystemInstruction(ictx *instructionCtx) types.InstrErrCode {
	dec := bin.NewBinDecoder(ictx.data)
	var disc struct{ Instruction uint32 }
	if err := dec.Decode(&disc); err != nil {
		return types.InstrErrInvalidInstructionData
	}

	switch disc.Instruction {
	case systemInstrCreateAccount:
		var args systemCreateAccountData
		if err := dec.Decode(&args); err != nil {
			return types.InstrErrInvalidInstructionData
		}
		return systemCreateAccount(ictx, args)

	case systemInstrAssign:
		var args systemAssignData
		if err := dec.Decode(&args); err != nil {
			return types.InstrErrInvalidInstructionData
		}
		return systemAssign(ictx, args)

	case systemInstrTransfer:
		var args systemTransferData
		if err := dec.Decode(&args); err != nil {
			return types.InstrErrInvalidInstructionData
		}
		return systemTransfer(ictx, args)

	case systemInstrAllocate:
		var args systemAllocateData
		if err := dec.Decode(&args); err != nil {
			return types.InstrErrInvalidInstructionData
		}
		return systemAllocate(ictx, args)
	}

	return types.InstrErrInvalidInstructionData
}

func systemCreateAccount(ictx *instructionCtx, args systemCreateAccountData) types.InstrErrCode {
	if len(ictx.accounts) < 2 {
		return types.InstrErrNotEnoughAccountKeys
	}
	funding := ictx.accounts[0]
	created := ictx.accounts[1]

	if !funding.Signer || !created.Signer {
		return types.InstrErrMissingRequiredSignature
	}
	if created.Acct.Exists() {
		ictx.log(fmt.Sprintf("Allocate: account %s already in use", created.Key))
		return types.InstrErrAccountAlreadyInUse
	}
	if args.Space > maxPermittedDataLength {
		return types.InstrErrInvalidAccountDataLength
	}
	if funding.Acct.Lamports < args.Lamports {
		ictx.log(fmt.Sprintf("Transfer: insufficient lamports %d, need %d", funding.Acct.Lamports, args.Lamports))
		return types.InstrErrInsufficientFunds
	}

	funding.Acct.Lamports -= args.Lamports
	created.Acct.Lamports += args.Lamports
	created.Acct.Data = make([]byte, args.Space)
	created.Acct.Owner = args.Owner
	created.Acct.Executable = false
	return ""
}

func systemAssign(ictx *instructionCtx, args systemAssignData) types.InstrErrCode {
	if len(ictx.accounts) < 1 {
		return types.InstrErrNotEnoughAccountKeys
	}
	target := ictx.accounts[0]
	if !target.Signer {
		return types.InstrErrMissingRequiredSignature
	}
	target.Acct.Owner = args.Owner
	return ""
}

func systemTransfer(ictx *instructionCtx, args systemTransferData) types.InstrErrCode {
	if len(ictx.accounts) < 2 {
		return types.InstrErrNotEnoughAccountKeys
	}
	from := ictx.accounts[0]
	to := ictx.accounts[1]

	if !from.Signer {
		return types.InstrErrMissingRequiredSignature
	}
	// lamports may only leave a system-owned account with no data
	if len(from.Acct.Data) > 0 || !from.Acct.Owner.Equals(solana.SystemProgramID) {
		return types.InstrErrInvalidProgramForExecution
	}
	if from.Acct.Lamports < args.Lamports {
		ictx.log(fmt.Sprintf("Transfer: insufficient lamports %d, need %d", from.Acct.Lamports, args.Lamports))
		return types.InstrErrInsufficientFunds
	}

	from.Acct.Lamports -= args.Lamports
	to.Acct.Lamports += args.Lamports
	return ""
}

func systemAllocate(ictx *instructionCtx, args systemAllocateData) types.InstrErrCode {
	if len(ictx.accounts) < 1 {
		return types.InstrErrNotEnoughAccountKeys
	}
	target := ictx.accounts[0]
	if !target.Signer {
		return types.InstrErrMissingRequiredSignature
	}
	if len(target.Acct.Data) > 0 || !target.Acct.Owner.Equals(solana.SystemProgramID) {
		ictx.log(fmt.Sprintf("Allocate: account %s already in use", target.Key))
		return types.InstrErrAccountAlreadyInUse
	}
	if args.Space > maxPermittedDataLength {
		return types.InstrErrInvalidAccountDataLength
	}
	target.Acct.Data = make([]byte, args.Space)
	return ""
}
