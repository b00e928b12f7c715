package executor

import (
	_ "embed"

	"github.com/gagliardetto/solana-go"

	"github.com/solsim/solsim/bank"
)

// Bytecode blobs for the well-known utility programs seeded at genesis.
// The blobs are opaque to the engine; they exist so fetched transactions
// that reference these program accounts see the same shape a live ledger
// serves.
var (
	//go:embed programs/spl_token-3.1.0.so
	splTokenProgram []byte

	//go:embed programs/spl_associated-token-account-1.0.1.so
	splAssociatedTokenProgram []byte

	//go:embed programs/spl_memo-1.0.0.so
	splMemo1Program []byte

	//go:embed programs/spl_memo-3.0.0.so
	splMemo3Program []byte
)

var wellKnownPrograms = []struct {
	id    solana.PublicKey
	owner solana.PublicKey
	data  []byte
}{
	{solana.SPLAssociatedTokenAccountProgramID, solana.BPFLoaderProgramID, splAssociatedTokenProgram},
	{bank.Memo1ProgramID, solana.BPFLoaderProgramID, splMemo1Program},
	{solana.MemoProgramID, solana.BPFLoaderProgramID, splMemo3Program},
	{solana.TokenProgramID, solana.BPFLoaderProgramID, splTokenProgram},
}
