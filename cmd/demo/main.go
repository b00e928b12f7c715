// Command demo drives a running solsim server through the typed client:
// it creates two fresh accounts at their rent-exempt balance and prints the
// per-transaction outcomes.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/rs/zerolog/log"

	"github.com/solsim/solsim/client"
)

func main() {
	ctx := context.Background()

	c, err := client.Dial(client.DefaultServerURL)
	if err != nil {
		log.Error().Err(err).Msg("Fail to dial executor server")
		os.Exit(1)
	}
	defer c.Close()

	payer, err := solana.NewRandomPrivateKey()
	if err != nil {
		log.Error().Err(err).Msg("Fail to generate payer")
		os.Exit(1)
	}

	latest, err := c.LatestBlockhash(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Fail to fetch latest blockhash")
		os.Exit(1)
	}

	var batch []*solana.Transaction
	signers := map[solana.PublicKey]solana.PrivateKey{payer.PublicKey(): payer}
	for i := uint64(0); i < 2; i++ {
		accountSize := 1000 + i
		accountKey, keyErr := solana.NewRandomPrivateKey()
		if keyErr != nil {
			log.Error().Err(keyErr).Msg("Fail to generate account key")
			os.Exit(1)
		}
		signers[accountKey.PublicKey()] = accountKey

		rentExempt, rentErr := c.RentExemptBalance(ctx, accountSize)
		if rentErr != nil {
			log.Error().Err(rentErr).Msg("Fail to fetch rent-exempt balance")
			os.Exit(1)
		}

		tx, txErr := solana.NewTransaction(
			[]solana.Instruction{
				system.NewCreateAccountInstruction(
					rentExempt,
					accountSize,
					solana.SystemProgramID,
					payer.PublicKey(),
					accountKey.PublicKey(),
				).Build(),
			},
			latest,
			solana.TransactionPayer(payer.PublicKey()),
		)
		if txErr != nil {
			log.Error().Err(txErr).Msg("Fail to build transaction")
			os.Exit(1)
		}
		if _, signErr := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
			if signer, ok := signers[key]; ok {
				return &signer
			}
			return nil
		}); signErr != nil {
			log.Error().Err(signErr).Msg("Fail to sign transaction")
			os.Exit(1)
		}
		batch = append(batch, tx)
	}

	results, err := c.ExecuteTransactionBatch(ctx, batch)
	if err != nil {
		log.Error().Err(err).Msg("Fail to execute batch")
		os.Exit(1)
	}

	for i, result := range results {
		if result.Err != nil {
			fmt.Printf("transaction %d failed: %s\n", i, result.Err)
		} else {
			fmt.Printf("transaction %d ok, fee %d\n", i, result.Fee)
			fmt.Printf("  pre balances:  %v\n", result.PreBalances)
			fmt.Printf("  post balances: %v\n", result.PostBalances)
		}
		for _, line := range result.LogMessages {
			fmt.Printf("  %s\n", line)
		}
	}
}
