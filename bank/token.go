package bank

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/solsim/solsim/types"
)

// minimum serialized size of a token utility program account
const tokenAccountDataLen = 165

// fixed-offset head of a token account: mint, holder, raw amount
type tokenAccountHead struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

// fixed-offset head of a token mint, through the decimals byte
type tokenMintHead struct {
	MintAuthorityTag uint32
	MintAuthority    solana.PublicKey
	Supply           uint64
	Decimals         uint8
}

// collectTokenBalances snapshots the balance of every token-program-owned
// account among keys. lookup resolves a key to its current account view,
// which lets callers snapshot either the working set or the committed fork.
func (b *Bank) collectTokenBalances(keys []solana.PublicKey, lookup func(solana.PublicKey) *types.Account) []types.TokenBalance {
	var balances []types.TokenBalance
	for i, key := range keys {
		account := lookup(key)
		if account == nil || !account.Owner.Equals(solana.TokenProgramID) || len(account.Data) < tokenAccountDataLen {
			continue
		}
		var head tokenAccountHead
		if err := bin.NewBinDecoder(account.Data).Decode(&head); err != nil {
			continue
		}
		balances = append(balances, types.TokenBalance{
			AccountIndex: uint16(i),
			Mint:         head.Mint,
			Owner:        head.Owner,
			Amount:       head.Amount,
			Decimals:     b.mintDecimals(head.Mint, lookup),
		})
	}
	return balances
}

func (b *Bank) mintDecimals(mint solana.PublicKey, lookup func(solana.PublicKey) *types.Account) uint8 {
	account := lookup(mint)
	if account == nil {
		stored, err := b.GetAccount(mint)
		if err != nil || stored == nil {
			return 0
		}
		account = stored
	}
	if !account.Owner.Equals(solana.TokenProgramID) {
		return 0
	}
	var head tokenMintHead
	if err := bin.NewBinDecoder(account.Data).Decode(&head); err != nil {
		return 0
	}
	return head.Decimals
}
