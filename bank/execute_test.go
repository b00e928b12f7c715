package bank

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solsim/solsim/types"
)

// rawInstruction lets tests target arbitrary programs with arbitrary data.
type rawInstruction struct {
	programID solana.PublicKey
	accounts  solana.AccountMetaSlice
	data      []byte
}

func (ix *rawInstruction) ProgramID() solana.PublicKey     { return ix.programID }
func (ix *rawInstruction) Accounts() []*solana.AccountMeta { return ix.accounts }
func (ix *rawInstruction) Data() ([]byte, error)           { return ix.data, nil }

func signedTx(t *testing.T, instructions []solana.Instruction, blockhash solana.Hash, payer solana.PrivateKey, extra ...solana.PrivateKey) *solana.Transaction {
	t.Helper()
	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(payer.PublicKey()))
	require.NoError(t, err)

	signers := map[solana.PublicKey]solana.PrivateKey{payer.PublicKey(): payer}
	for _, key := range extra {
		signers[key.PublicKey()] = key
	}
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if signer, ok := signers[key]; ok {
			return &signer
		}
		return nil
	})
	require.NoError(t, err)
	return tx
}

func fundedBank(t *testing.T, payer solana.PublicKey, lamports uint64) *Bank {
	t.Helper()
	return newTestBank(t, map[solana.PublicKey]*types.Account{
		payer: {Lamports: lamports, Owner: solana.SystemProgramID, Data: []byte{}},
	})
}

func TestTransferCommitsOnSuccess(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	dest := solana.NewWallet().PublicKey()
	b := fundedBank(t, payer.PublicKey(), 1_000_000_000)

	tx := signedTx(t, []solana.Instruction{
		system.NewTransferInstruction(1000, payer.PublicKey(), dest).Build(),
	}, b.LastBlockhash(), payer)

	result := b.ExecuteTransaction(tx)
	require.Nil(t, result.Err)
	assert.Equal(t, uint64(5000), result.Fee)
	assert.Equal(t, uint64(150), result.ComputeUnitsConsumed)
	assert.Equal(t, tx.Signatures[0], result.Signature)
	assert.Equal(t, uint64(1_000_000_000), result.PreBalances[0])
	assert.Equal(t, uint64(1_000_000_000-1000-5000), result.PostBalances[0])
	assert.Equal(t, uint64(1000), result.PostBalances[1])
	assert.Contains(t, result.LogMessages, fmt.Sprintf("Program %s invoke [1]", solana.SystemProgramID))
	assert.Contains(t, result.LogMessages, fmt.Sprintf("Program %s success", solana.SystemProgramID))

	stored, err := b.GetAccount(dest)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, uint64(1000), stored.Lamports)
}

func TestFeeChargedOnExecutedFailure(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	dest := solana.NewWallet().PublicKey()
	b := fundedBank(t, payer.PublicKey(), 10_000)

	tx := signedTx(t, []solana.Instruction{
		system.NewTransferInstruction(1_000_000, payer.PublicKey(), dest).Build(),
	}, b.LastBlockhash(), payer)

	result := b.ExecuteTransaction(tx)
	require.NotNil(t, result.Err)
	assert.Equal(t, types.TxErrInstructionError, result.Err.Code)
	assert.Equal(t, types.InstrErrInsufficientFunds, result.Err.InstructionError)
	require.NotNil(t, result.Err.InstructionIndex)
	assert.Equal(t, uint8(0), *result.Err.InstructionIndex)
	assert.Equal(t, uint64(5000), result.Fee)

	// the fee is assessed, every other mutation rolls back
	stored, err := b.GetAccount(payer.PublicKey())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, uint64(5000), stored.Lamports)

	destAccount, err := b.GetAccount(dest)
	require.NoError(t, err)
	assert.Nil(t, destAccount)
}

func TestStaleBlockhashRejected(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	dest := solana.NewWallet().PublicKey()
	b := fundedBank(t, payer.PublicKey(), 1_000_000)

	var stale solana.Hash
	stale[0] = 0xAB

	tx := signedTx(t, []solana.Instruction{
		system.NewTransferInstruction(1000, payer.PublicKey(), dest).Build(),
	}, stale, payer)

	result := b.ExecuteTransaction(tx)
	require.NotNil(t, result.Err)
	assert.Equal(t, types.TxErrBlockhashNotFound, result.Err.Code)
	assert.Equal(t, uint64(0), result.Fee)

	// rejected before execution: nothing is charged
	stored, err := b.GetAccount(payer.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), stored.Lamports)
}

func TestUnknownFeePayerRejected(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	dest := solana.NewWallet().PublicKey()
	b := newTestBank(t, nil)

	tx := signedTx(t, []solana.Instruction{
		system.NewTransferInstruction(1000, payer.PublicKey(), dest).Build(),
	}, b.LastBlockhash(), payer)

	result := b.ExecuteTransaction(tx)
	require.NotNil(t, result.Err)
	assert.Equal(t, types.TxErrAccountNotFound, result.Err.Code)
	assert.Equal(t, uint64(0), result.Fee)
}

func TestInsufficientFundsForFee(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	dest := solana.NewWallet().PublicKey()
	b := fundedBank(t, payer.PublicKey(), 4999)

	tx := signedTx(t, []solana.Instruction{
		system.NewTransferInstruction(1, payer.PublicKey(), dest).Build(),
	}, b.LastBlockhash(), payer)

	result := b.ExecuteTransaction(tx)
	require.NotNil(t, result.Err)
	assert.Equal(t, types.TxErrInsufficientFundsForFee, result.Err.Code)

	stored, err := b.GetAccount(payer.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(4999), stored.Lamports)
}

func TestCreateAccount(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	created := solana.NewWallet().PrivateKey
	owner := solana.NewWallet().PublicKey()
	b := fundedBank(t, payer.PublicKey(), 1_000_000_000)

	space := uint64(100)
	lamports := MinimumRentExemptBalance(space)
	tx := signedTx(t, []solana.Instruction{
		system.NewCreateAccountInstruction(lamports, space, owner, payer.PublicKey(), created.PublicKey()).Build(),
	}, b.LastBlockhash(), payer, created)

	result := b.ExecuteTransaction(tx)
	require.Nil(t, result.Err)

	stored, err := b.GetAccount(created.PublicKey())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, lamports, stored.Lamports)
	assert.Equal(t, owner, stored.Owner)
	assert.Equal(t, make([]byte, space), stored.Data)
	assert.False(t, stored.Executable)
}

func TestCreateAccountAlreadyInUse(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	created := solana.NewWallet().PrivateKey
	b := newTestBank(t, map[solana.PublicKey]*types.Account{
		payer.PublicKey():   {Lamports: 1_000_000_000, Owner: solana.SystemProgramID, Data: []byte{}},
		created.PublicKey(): {Lamports: 1, Owner: solana.SystemProgramID, Data: []byte{}},
	})

	tx := signedTx(t, []solana.Instruction{
		system.NewCreateAccountInstruction(890880, 0, solana.SystemProgramID, payer.PublicKey(), created.PublicKey()).Build(),
	}, b.LastBlockhash(), payer, created)

	result := b.ExecuteTransaction(tx)
	require.NotNil(t, result.Err)
	assert.Equal(t, types.TxErrInstructionError, result.Err.Code)
	assert.Equal(t, types.InstrErrAccountAlreadyInUse, result.Err.InstructionError)
	assert.Contains(t, result.LogMessages, fmt.Sprintf("Allocate: account %s already in use", created.PublicKey()))
	assert.Equal(t, uint64(10000), result.Fee)
}

func TestMemoWritesLog(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	b := fundedBank(t, payer.PublicKey(), 1_000_000)

	tx := signedTx(t, []solana.Instruction{
		&rawInstruction{programID: solana.MemoProgramID, data: []byte("hello")},
	}, b.LastBlockhash(), payer)

	result := b.ExecuteTransaction(tx)
	require.Nil(t, result.Err)
	assert.Equal(t, uint64(500), result.ComputeUnitsConsumed)
	assert.Contains(t, result.LogMessages, `Program log: Memo (len 5): "hello"`)
}

func TestMemoRejectsInvalidUTF8(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	b := fundedBank(t, payer.PublicKey(), 1_000_000)

	tx := signedTx(t, []solana.Instruction{
		&rawInstruction{programID: Memo1ProgramID, data: []byte{0xFF, 0xFE}},
	}, b.LastBlockhash(), payer)

	result := b.ExecuteTransaction(tx)
	require.NotNil(t, result.Err)
	assert.Equal(t, types.InstrErrInvalidInstructionData, result.Err.InstructionError)
	assert.Contains(t, result.LogMessages, "Invalid UTF-8, from byte 0")
}

func TestOversizeTransaction(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	b := fundedBank(t, payer.PublicKey(), 1_000_000)

	tx := signedTx(t, []solana.Instruction{
		&rawInstruction{programID: solana.MemoProgramID, data: bytes.Repeat([]byte("m"), 1300)},
	}, b.LastBlockhash(), payer)

	result := b.ExecuteTransaction(tx)
	require.NotNil(t, result.Err)
	assert.Equal(t, types.TxErrOversize, result.Err.Code)
	assert.Equal(t, uint64(0), result.Fee)

	stored, err := b.GetAccount(payer.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), stored.Lamports)
}

func TestUnsupportedProgram(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	program := solana.NewWallet().PublicKey()
	b := newTestBank(t, map[solana.PublicKey]*types.Account{
		payer.PublicKey(): {Lamports: 1_000_000, Owner: solana.SystemProgramID, Data: []byte{}},
		program:           {Lamports: 1, Owner: solana.BPFLoaderProgramID, Data: []byte{0x7F, 'E', 'L', 'F'}, Executable: true},
	})

	tx := signedTx(t, []solana.Instruction{
		&rawInstruction{programID: program, data: []byte{0}},
	}, b.LastBlockhash(), payer)

	result := b.ExecuteTransaction(tx)
	require.NotNil(t, result.Err)
	assert.Equal(t, types.InstrErrUnsupportedProgram, result.Err.InstructionError)
}

func TestMissingProgramAccount(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	b := fundedBank(t, payer.PublicKey(), 1_000_000)

	tx := signedTx(t, []solana.Instruction{
		&rawInstruction{programID: solana.NewWallet().PublicKey(), data: []byte{0}},
	}, b.LastBlockhash(), payer)

	result := b.ExecuteTransaction(tx)
	require.NotNil(t, result.Err)
	assert.Equal(t, types.InstrErrInvalidProgramForExecution, result.Err.InstructionError)
}

func TestBadSignatureRejected(t *testing.T) {
	payer := solana.NewWallet().PrivateKey
	dest := solana.NewWallet().PublicKey()
	b := fundedBank(t, payer.PublicKey(), 1_000_000)

	tx := signedTx(t, []solana.Instruction{
		system.NewTransferInstruction(1000, payer.PublicKey(), dest).Build(),
	}, b.LastBlockhash(), payer)
	tx.Signatures[0][0] ^= 0xFF

	result := b.ExecuteTransaction(tx)
	require.NotNil(t, result.Err)
	assert.Equal(t, types.TxErrSignatureFailure, result.Err.Code)
}
