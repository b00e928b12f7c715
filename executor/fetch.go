package executor

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/gagliardetto/solana-go"

	"github.com/solsim/solsim/types"
)

type fetchedAccount struct {
	key     solana.PublicKey
	account *types.Account
}

// fetchDependencyClosure pulls every account the batch references from the
// remote source, expands executable accounts to their program-data
// addresses, and merges the result into the fork under the configured
// policy. Keys the remote reports absent are dropped: absence is a valid
// state, the batch may be about to create them.
func (e *Executor) fetchDependencyClosure(ctx context.Context, batch []*solana.Transaction) error {
	keys := collectAccountKeys(batch)
	if len(keys) == 0 {
		return nil
	}

	fetched, err := e.fetchPresent(ctx, keys)
	if err != nil {
		return err
	}

	// Upgradeable-style programs keep their bytecode at a derived
	// program-data address; without this second pass execution fails with
	// spurious missing-account causes.
	var programDataKeys []solana.PublicKey
	for _, f := range fetched {
		if !f.account.Executable {
			continue
		}
		derived, _, deriveErr := solana.FindProgramAddress(
			[][]byte{f.key.Bytes()},
			solana.BPFLoaderUpgradeableProgramID,
		)
		if deriveErr != nil {
			return fmt.Errorf("derive program-data address for %s: %w", f.key, deriveErr)
		}
		programDataKeys = append(programDataKeys, derived)
	}
	programDataKeys = dedupeKeys(programDataKeys)

	expanded, err := e.fetchPresent(ctx, programDataKeys)
	if err != nil {
		return err
	}

	merged := 0
	for _, f := range append(fetched, expanded...) {
		if e.fetchPolicy == FetchPolicyPreserve {
			exists, existErr := e.bank.HasAccount(f.key)
			if existErr != nil {
				return existErr
			}
			if exists {
				continue
			}
		}
		if storeErr := e.bank.StoreAccount(f.key, f.account); storeErr != nil {
			return storeErr
		}
		merged++
	}

	e.logger.Debug().
		Int("referenced", len(keys)).
		Int("fetched", len(fetched)).
		Int("expanded", len(expanded)).
		Int("merged", merged).
		Msg("Fetched batch dependency closure")
	return nil
}

func (e *Executor) fetchPresent(ctx context.Context, keys []solana.PublicKey) ([]fetchedAccount, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	accounts, err := e.remote.GetMultipleAccounts(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrUpstreamUnavailable, err)
	}

	fetched := make([]fetchedAccount, 0, len(keys))
	for i, account := range accounts {
		if account == nil {
			continue
		}
		fetched = append(fetched, fetchedAccount{key: keys[i], account: account})
	}
	return fetched, nil
}

// collectAccountKeys returns the distinct keys referenced anywhere in the
// batch, in a deterministic order.
func collectAccountKeys(batch []*solana.Transaction) []solana.PublicKey {
	var keys []solana.PublicKey
	for _, tx := range batch {
		keys = append(keys, tx.Message.AccountKeys...)
	}
	return dedupeKeys(keys)
}

func dedupeKeys(keys []solana.PublicKey) []solana.PublicKey {
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	deduped := keys[:0]
	var prev solana.PublicKey
	for i, key := range keys {
		if i > 0 && key == prev {
			continue
		}
		deduped = append(deduped, key)
		prev = key
	}
	return deduped
}
