package bank

import (
	"github.com/gagliardetto/solana-go"

	"github.com/solsim/solsim/types"
)

// Well-known addresses the engine knows beyond what solana-go exports.
var (
	Memo1ProgramID = solana.MustPublicKeyFromBase58("Memo1UhkJRfHyvLMcVucJwxXeuD728EqVDDwQDxFMNo")
	NativeLoaderID = solana.MustPublicKeyFromBase58("NativeLoader1111111111111111111111111111111")
	SysvarOwnerID  = solana.MustPublicKeyFromBase58("Sysvar1111111111111111111111111111111111111")
)

// builtin is a natively implemented program.
type builtin struct {
	name         string
	computeUnits uint64
	process      processFunc
}

// processFunc runs one instruction against the transaction's working set.
// An empty code means success.
type processFunc func(ictx *instructionCtx) types.InstrErrCode

// instructionCtx is the view a builtin gets of one compiled instruction:
// the invoking program, the raw instruction data, and the resolved accounts
// backed by the transaction working set.
type instructionCtx struct {
	bank      *Bank
	programID solana.PublicKey
	data      []byte
	accounts  []instructionAccount
	logs      *[]string
}

type instructionAccount struct {
	Key      solana.PublicKey
	Signer   bool
	Writable bool
	Acct     *types.Account
}

func (ictx *instructionCtx) log(line string) {
	*ictx.logs = append(*ictx.logs, line)
}

func nativeBuiltins() map[solana.PublicKey]builtin {
	return map[solana.PublicKey]builtin{
		solana.SystemProgramID: {
			name:         "system_program",
			computeUnits: 150,
			process:      processSystemInstruction,
		},
		solana.MemoProgramID: {
			name:         "memo_program_v3",
			computeUnits: 500,
			process:      processMemoInstruction,
		},
		Memo1ProgramID: {
			name:         "memo_program_v1",
			computeUnits: 500,
			process:      processMemoInstruction,
		},
		solana.BPFLoaderProgramID: {
			name:         "bpf_loader",
			computeUnits: 570,
			process:      processLoaderInstruction,
		},
		solana.BPFLoaderUpgradeableProgramID: {
			name:         "bpf_loader_upgradeable",
			computeUnits: 570,
			process:      processLoaderInstruction,
		},
	}
}

// processLoaderInstruction accepts loader traffic without acting on it; the
// sandbox never executes deployed bytecode.
func processLoaderInstruction(*instructionCtx) types.InstrErrCode {
	return ""
}
