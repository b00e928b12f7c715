package bank

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/solsim/solsim/types"
)

// ExecuteTransaction runs one transaction against the fork. Every failure
// mode is captured inside the returned result; the engine never turns a
// ledger-semantic failure into a call error. Mutations from a successful
// transaction are committed to the fork before returning, so they are
// visible to the next transaction in the same batch.
func (b *Bank) ExecuteTransaction(tx *solana.Transaction) *types.ExecutionResult {
	result := &types.ExecutionResult{
		Slot:      b.slot,
		BlockTime: time.Now().Unix(),
	}
	if len(tx.Signatures) > 0 {
		result.Signature = tx.Signatures[0]
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		result.Err = types.NewTxError(types.TxErrSanitizeFailure, err.Error())
		return result
	}
	if len(raw) > PacketDataSize {
		result.Err = types.NewTxError(types.TxErrOversize,
			fmt.Sprintf("transaction of size %d exceeds the packet ceiling by %d bytes", len(raw), len(raw)-PacketDataSize))
		return result
	}

	msg := &tx.Message
	keys := msg.AccountKeys
	numRequired := int(msg.Header.NumRequiredSignatures)
	if len(keys) == 0 || numRequired == 0 || numRequired > len(keys) {
		result.Err = types.NewTxError(types.TxErrSanitizeFailure, "malformed message header")
		return result
	}
	if len(tx.Signatures) != numRequired {
		result.Err = types.NewTxError(types.TxErrSignatureFailure,
			fmt.Sprintf("expected %d signatures, got %d", numRequired, len(tx.Signatures)))
		return result
	}

	msgBytes, err := msg.MarshalBinary()
	if err != nil {
		result.Err = types.NewTxError(types.TxErrSanitizeFailure, err.Error())
		return result
	}
	for i := 0; i < numRequired; i++ {
		if !ed25519.Verify(ed25519.PublicKey(keys[i][:]), msgBytes, tx.Signatures[i][:]) {
			result.Err = types.NewTxError(types.TxErrSignatureFailure,
				fmt.Sprintf("signature %d does not verify against %s", i, keys[i]))
			return result
		}
	}

	ws, err := b.loadWorkingSet(keys)
	if err != nil {
		result.Err = types.NewTxError(types.TxErrSanitizeFailure, err.Error())
		return result
	}
	result.PreBalances = ws.balances(keys)
	result.PreTokenBalances = b.collectTokenBalances(keys, ws.get)

	if !b.IsRecentBlockhash(msg.RecentBlockhash) {
		result.PostBalances = result.PreBalances
		result.Err = types.NewTxError(types.TxErrBlockhashNotFound,
			fmt.Sprintf("blockhash %s is not recent", msg.RecentBlockhash))
		return result
	}

	fee := b.FeeForNumSignatures(numRequired)
	payer := ws.get(keys[0])
	if !payer.Exists() {
		result.PostBalances = result.PreBalances
		result.Err = types.NewTxError(types.TxErrAccountNotFound,
			fmt.Sprintf("fee payer %s not found", keys[0]))
		return result
	}
	if payer.Lamports < fee {
		result.PostBalances = result.PreBalances
		result.Err = types.NewTxError(types.TxErrInsufficientFundsForFee,
			fmt.Sprintf("fee payer %s holds %d lamports, fee is %d", keys[0], payer.Lamports, fee))
		return result
	}

	result.Fee = fee
	payer.Lamports -= fee

	var logs []string
	txErr := b.runInstructions(msg, ws, &logs, result)

	if txErr == nil {
		if err := ws.commit(b); err != nil {
			// a store failure here would leave the fork torn; treat it as fatal
			b.logger.Fatal().Err(err).Msg("Fail to commit transaction working set")
		}
	} else {
		// the fee is still assessed: re-apply just the payer debit
		stored, err := b.GetAccount(keys[0])
		if err == nil && stored != nil {
			stored.Lamports -= fee
			if err := b.StoreAccount(keys[0], stored); err != nil {
				b.logger.Fatal().Err(err).Msg("Fail to charge fee for failed transaction")
			}
		}
	}

	result.Err = txErr
	result.LogMessages = logs
	result.PostBalances = b.storedBalances(keys)
	result.PostTokenBalances = b.collectTokenBalances(keys, func(key solana.PublicKey) *types.Account {
		account, getErr := b.GetAccount(key)
		if getErr != nil {
			return nil
		}
		return account
	})
	return result
}

func (b *Bank) runInstructions(msg *solana.Message, ws *workingSet, logs *[]string, result *types.ExecutionResult) *types.TransactionError {
	keys := msg.AccountKeys
	for idx, ci := range msg.Instructions {
		if int(ci.ProgramIDIndex) >= len(keys) {
			return types.NewInstructionError(uint8(idx), types.InstrErrNotEnoughAccountKeys)
		}
		programID := keys[ci.ProgramIDIndex]
		*logs = append(*logs, fmt.Sprintf("Program %s invoke [1]", programID))

		accounts := make([]instructionAccount, 0, len(ci.Accounts))
		cause := types.InstrErrCode("")
		for _, accountIndex := range ci.Accounts {
			if int(accountIndex) >= len(keys) {
				cause = types.InstrErrNotEnoughAccountKeys
				break
			}
			key := keys[accountIndex]
			accounts = append(accounts, instructionAccount{
				Key:      key,
				Signer:   isSigner(msg, int(accountIndex)),
				Writable: isWritable(msg, int(accountIndex)),
				Acct:     ws.get(key),
			})
		}

		if cause == "" {
			if bi, found := b.builtins[programID]; found {
				cause = bi.process(&instructionCtx{
					bank:      b,
					programID: programID,
					data:      []byte(ci.Data),
					accounts:  accounts,
					logs:      logs,
				})
				result.ComputeUnitsConsumed += bi.computeUnits
			} else {
				programAccount := ws.get(programID)
				if programAccount.Exists() && programAccount.Executable {
					cause = types.InstrErrUnsupportedProgram
				} else {
					cause = types.InstrErrInvalidProgramForExecution
				}
			}
		}

		if cause != "" {
			*logs = append(*logs, fmt.Sprintf("Program %s failed: %s", programID, cause))
			return types.NewInstructionError(uint8(idx), cause)
		}
		*logs = append(*logs, fmt.Sprintf("Program %s success", programID))
	}
	return nil
}

func isSigner(msg *solana.Message, index int) bool {
	return index < int(msg.Header.NumRequiredSignatures)
}

func isWritable(msg *solana.Message, index int) bool {
	h := msg.Header
	numRequired := int(h.NumRequiredSignatures)
	if index < numRequired {
		return index < numRequired-int(h.NumReadonlySignedAccounts)
	}
	return index < len(msg.AccountKeys)-int(h.NumReadonlyUnsignedAccounts)
}

// workingSet is the mutable per-transaction view of the fork. Builtins
// mutate the clones; nothing reaches the store until commit.
type workingSet struct {
	accounts map[solana.PublicKey]*types.Account
}

func (b *Bank) loadWorkingSet(keys []solana.PublicKey) (*workingSet, error) {
	ws := &workingSet{accounts: make(map[solana.PublicKey]*types.Account, len(keys))}
	for _, key := range keys {
		if _, loaded := ws.accounts[key]; loaded {
			continue
		}
		account, err := b.GetAccount(key)
		if err != nil {
			return nil, err
		}
		if account == nil {
			account = &types.Account{Owner: solana.SystemProgramID, Data: []byte{}}
		}
		ws.accounts[key] = account
	}
	return ws, nil
}

func (ws *workingSet) get(key solana.PublicKey) *types.Account {
	if account, ok := ws.accounts[key]; ok {
		return account
	}
	return nil
}

func (ws *workingSet) balances(keys []solana.PublicKey) []uint64 {
	balances := make([]uint64, len(keys))
	for i, key := range keys {
		balances[i] = ws.accounts[key].Lamports
	}
	return balances
}

func (ws *workingSet) commit(b *Bank) error {
	for key, account := range ws.accounts {
		if err := b.StoreAccount(key, account); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bank) storedBalances(keys []solana.PublicKey) []uint64 {
	balances := make([]uint64, len(keys))
	for i, key := range keys {
		account, err := b.GetAccount(key)
		if err != nil || account == nil {
			continue
		}
		balances[i] = account.Lamports
	}
	return balances
}
