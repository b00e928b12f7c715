package executor

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solsim/solsim/types"
)

func createAccountTx(t *testing.T, payer solana.PrivateKey, created solana.PrivateKey, space uint64, lamports uint64, blockhash solana.Hash) *solana.Transaction {
	t.Helper()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewCreateAccountInstruction(lamports, space, solana.SystemProgramID, payer.PublicKey(), created.PublicKey()).Build(),
		},
		blockhash,
		solana.TransactionPayer(payer.PublicKey()),
	)
	require.NoError(t, err)

	signers := map[solana.PublicKey]solana.PrivateKey{
		payer.PublicKey():   payer,
		created.PublicKey(): created,
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

func TestAdvanceClockReturnsFreshToken(t *testing.T) {
	exec := newTestExecutor(t, &fakeRemote{})

	before := exec.LatestBlockhash()
	after := exec.AdvanceClock(nil)
	assert.NotEqual(t, before, after)
	assert.Equal(t, after, exec.LatestBlockhash())
}

func TestCreateAccountBatchAndReplay(t *testing.T) {
	exec := newTestExecutor(t, &fakeRemote{})
	ctx := context.Background()
	payer := exec.Payer()
	blockhash := exec.LatestBlockhash()

	sizes := []uint64{1000, 1001}
	var batch []*solana.Transaction
	var createdKeys []solana.PublicKey
	for _, size := range sizes {
		created := solana.NewWallet().PrivateKey
		createdKeys = append(createdKeys, created.PublicKey())
		batch = append(batch, createAccountTx(t, payer, created, size, exec.MinimumRentExemptBalance(size), blockhash))
	}

	results, err := exec.ExecuteTransactionBatch(ctx, batch)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for i, size := range sizes {
		require.Nil(t, results[i].Err)

		account, getErr := exec.GetAccount(createdKeys[i])
		require.NoError(t, getErr)
		require.NotNil(t, account)
		assert.Len(t, account.Data, int(size))
		assert.Equal(t, solana.SystemProgramID, account.Owner)
		assert.Equal(t, exec.MinimumRentExemptBalance(size), account.Lamports)
	}

	// the fork keeps the batch's mutations, so the same batch fails on replay
	replay, err := exec.ExecuteTransactionBatch(ctx, batch)
	require.NoError(t, err)
	require.Len(t, replay, 2)
	for _, result := range replay {
		require.NotNil(t, result.Err)
		assert.Equal(t, types.TxErrInstructionError, result.Err.Code)
		assert.Equal(t, types.InstrErrAccountAlreadyInUse, result.Err.InstructionError)
	}
}

func TestUnknownAccountFailureKeepsServiceResponsive(t *testing.T) {
	exec := newTestExecutor(t, &fakeRemote{})
	ctx := context.Background()
	unknown := solana.NewWallet().PrivateKey
	dest := solana.NewWallet().PublicKey()

	results, err := exec.ExecuteTransactionBatch(ctx,
		[]*solana.Transaction{transferTx(t, unknown, dest, 1000, exec.LatestBlockhash())})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Err)
	assert.Equal(t, types.TxErrAccountNotFound, results[0].Err.Code)

	// the failure is contained: the next batch executes normally
	payer := exec.Payer()
	results, err = exec.ExecuteTransactionBatch(ctx,
		[]*solana.Transaction{transferTx(t, payer, dest, 1000, exec.LatestBlockhash())})
	require.NoError(t, err)
	require.Nil(t, results[0].Err)
}

func TestReadsDoNotMutate(t *testing.T) {
	exec := newTestExecutor(t, &fakeRemote{})
	payer := exec.Payer().PublicKey()
	blockhash := exec.LatestBlockhash()

	for i := 0; i < 5; i++ {
		_, err := exec.GetAccount(payer)
		require.NoError(t, err)
		_, err = exec.GetAccounts([]solana.PublicKey{payer, solana.NewWallet().PublicKey()})
		require.NoError(t, err)
	}

	assert.Equal(t, blockhash, exec.LatestBlockhash())
	account, err := exec.GetAccount(payer)
	require.NoError(t, err)
	assert.Equal(t, faucetLamports, account.Lamports)
}
