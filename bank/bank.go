package bank

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	sha256 "github.com/minio/sha256-simd"

	"github.com/solsim/solsim/db"
	"github.com/solsim/solsim/log"
	"github.com/solsim/solsim/types"
)

const (
	// PacketDataSize is the network packet ceiling for a serialized
	// transaction.
	PacketDataSize = 1232

	// maxPermittedDataLength caps account data created by the system program.
	maxPermittedDataLength = 10 * 1024 * 1024

	// ticksPerBlockhash is the engine-native tick granularity: the blockhash
	// queue adopts a new hash only on a tick boundary, so one externally
	// visible change can take several ticks.
	ticksPerBlockhash = 4

	// maxRecentBlockhashes is the depth of the recency window a transaction's
	// declared blockhash is checked against.
	maxRecentBlockhashes = 150

	lamportsPerSignature = 5000

	// rent parameters, per the ledger's published rule
	rentLamportsPerByteYear = 3480
	rentExemptionThreshold  = 2
	accountStorageOverhead  = 128
)

// Bank is the deterministic execution engine. It owns the fork (the local
// account store), the blockhash queue that acts as the simulated clock, and
// the builtin program processors.
//
// Bank does no locking of its own; the executor serializes every call.
type Bank struct {
	store  db.DB
	logger *log.Logger

	slot       uint64
	parentSlot uint64
	tickCount  uint64

	latest      solana.Hash
	recentQueue []solana.Hash
	recentSet   map[solana.Hash]struct{}
	hashCounter uint64

	builtins map[solana.PublicKey]builtin
}

// New builds a bank over the given store, seeded with the genesis accounts.
func New(store db.DB, accounts map[solana.PublicKey]*types.Account) (*Bank, error) {
	b := &Bank{
		store:     store,
		logger:    log.NewLogger("bank"),
		recentSet: make(map[solana.Hash]struct{}),
		builtins:  nativeBuiltins(),
	}

	for key, account := range accounts {
		if err := b.StoreAccount(key, account); err != nil {
			return nil, fmt.Errorf("seed genesis account %s: %w", key, err)
		}
	}

	genesisHash := solana.Hash(sha256.Sum256([]byte("solsim-genesis")))
	b.adoptBlockhash(genesisHash, false)
	return b, nil
}

// StoreAccount replaces the account at key wholesale.
func (b *Bank) StoreAccount(key solana.PublicKey, account *types.Account) error {
	data, err := account.Serialize()
	if err != nil {
		return err
	}
	return b.store.Set(db.NamespaceAccounts, key.Bytes(), data)
}

// GetAccount reads the account at key. A nil result means the key is absent
// from the fork, which is a valid state, not an error.
func (b *Bank) GetAccount(key solana.PublicKey) (*types.Account, error) {
	data, exists, err := b.store.Get(db.NamespaceAccounts, key.Bytes())
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	account, err := types.DeserializeAccount(data)
	if err != nil {
		return nil, err
	}
	if !account.Exists() {
		return nil, nil
	}
	return account, nil
}

// HasAccount reports fork presence without decoding.
func (b *Bank) HasAccount(key solana.PublicKey) (bool, error) {
	return b.store.Exist(db.NamespaceAccounts, key.Bytes())
}

// MinimumRentExemptBalance is the minimum balance an account with dataLen
// bytes of data must hold to avoid rent decay.
func MinimumRentExemptBalance(dataLen uint64) uint64 {
	return (accountStorageOverhead + dataLen) * rentLamportsPerByteYear * rentExemptionThreshold
}

func (b *Bank) MinimumRentExemptBalance(dataLen uint64) uint64 {
	return MinimumRentExemptBalance(dataLen)
}

// Close releases the underlying store.
func (b *Bank) Close() error {
	return b.store.Close()
}

// FeeForNumSignatures is the fee assessed for a transaction carrying n
// signatures.
func (b *Bank) FeeForNumSignatures(n int) uint64 {
	return lamportsPerSignature * uint64(n)
}

// LastBlockhash returns the current recency token.
func (b *Bank) LastBlockhash() solana.Hash {
	return b.latest
}

func (b *Bank) Slot() uint64 { return b.slot }

func (b *Bank) ParentSlot() uint64 { return b.parentSlot }

// IsRecentBlockhash reports whether hash is inside the recency window.
func (b *Bank) IsRecentBlockhash(hash solana.Hash) bool {
	_, ok := b.recentSet[hash]
	return ok
}

// MintUniqueHash derives a fresh hash that has never been the latest
// blockhash of this bank. The derivation is a counter chain off the current
// hash, so two banks built from identical genesis mint identical sequences.
func (b *Bank) MintUniqueHash() solana.Hash {
	b.hashCounter++
	var seed [40]byte
	copy(seed[:32], b.latest[:])
	binary.LittleEndian.PutUint64(seed[32:], b.hashCounter)
	return solana.Hash(sha256.Sum256(seed[:]))
}

// RegisterTick issues one internal tick. The queue adopts hash as the new
// latest blockhash only when the tick count crosses a blockhash boundary.
func (b *Bank) RegisterTick(hash solana.Hash) {
	b.tickCount++
	if b.tickCount%ticksPerBlockhash == 0 && !b.latestEquals(hash) {
		b.adoptBlockhash(hash, true)
	}
}

// AdvanceToBlockhash ticks the bank until the queue's latest hash equals
// target, in however many internal steps that takes. Calling it with the
// current hash is a no-op.
func (b *Bank) AdvanceToBlockhash(target solana.Hash) solana.Hash {
	for !b.latestEquals(target) {
		b.RegisterTick(target)
	}
	return b.latest
}

func (b *Bank) latestEquals(hash solana.Hash) bool {
	return b.latest == hash
}

func (b *Bank) adoptBlockhash(hash solana.Hash, advanceSlot bool) {
	if advanceSlot {
		b.parentSlot = b.slot
		b.slot++
	}
	b.latest = hash
	b.recentQueue = append(b.recentQueue, hash)
	b.recentSet[hash] = struct{}{}
	if len(b.recentQueue) > maxRecentBlockhashes {
		evicted := b.recentQueue[0]
		b.recentQueue = b.recentQueue[1:]
		delete(b.recentSet, evicted)
	}
}
