package executor

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/solsim/solsim/bank"
	"github.com/solsim/solsim/db"
	"github.com/solsim/solsim/db/memorydb"
	"github.com/solsim/solsim/log"
	"github.com/solsim/solsim/remote"
	"github.com/solsim/solsim/types"
)

// DefaultRPCEndpoint is the remote ledger source used when no binding is
// configured.
const DefaultRPCEndpoint = "https://api.mainnet-beta.solana.com"

// faucetLamports is effectively unlimited for sandbox purposes.
const faucetLamports = uint64(1) << 48

// FetchPolicy decides what happens when a remote fetch returns a key the
// fork already holds.
type FetchPolicy string

const (
	// FetchPolicyRefresh overwrites local state with the fetched account:
	// remote state always wins.
	FetchPolicyRefresh FetchPolicy = "refresh"
	// FetchPolicyPreserve keeps a key's local state if the fork already
	// holds it, so prior local mutations survive re-fetches.
	FetchPolicyPreserve FetchPolicy = "preserve"
)

func ParseFetchPolicy(s string) (FetchPolicy, error) {
	switch FetchPolicy(s) {
	case FetchPolicyRefresh, FetchPolicyPreserve:
		return FetchPolicy(s), nil
	case "":
		return FetchPolicyRefresh, nil
	}
	return "", fmt.Errorf("unknown fetch policy %q", s)
}

// Builder accumulates genesis state and configuration, then finalizes into
// a running Executor. Build is one-shot; a Builder is not reused.
type Builder struct {
	accounts    map[solana.PublicKey]*types.Account
	faucet      solana.PrivateKey
	endpoint    string
	commitment  types.Commitment
	fetchPolicy FetchPolicy
	store       db.DB
	dialer      remote.Dialer
}

// NewBuilder starts from the default genesis: a funded faucet plus the
// well-known utility programs and the rent sysvar.
func NewBuilder() (*Builder, error) {
	faucet, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate faucet keypair: %w", err)
	}

	b := &Builder{
		accounts:    make(map[solana.PublicKey]*types.Account),
		faucet:      faucet,
		endpoint:    DefaultRPCEndpoint,
		commitment:  types.CommitmentProcessed,
		fetchPolicy: FetchPolicyRefresh,
		dialer:      remote.Dial,
	}

	b.AddAccountWithLamports(faucet.PublicKey(), solana.SystemProgramID, faucetLamports)
	for _, p := range wellKnownPrograms {
		b.AddRentExemptAccountWithData(p.id, p.owner, p.data, true)
	}
	b.AddAccountWithLamports(solana.SysVarRentPubkey, bank.SysvarOwnerID, 1)

	return b, nil
}

// SetRPCConfig sets the remote binding used after Build.
func (b *Builder) SetRPCConfig(endpoint string, commitment types.Commitment) *Builder {
	b.endpoint = endpoint
	b.commitment = commitment
	return b
}

// SetFetchPolicy overrides the remote-wins default.
func (b *Builder) SetFetchPolicy(policy FetchPolicy) *Builder {
	b.fetchPolicy = policy
	return b
}

// SetStore overrides the default in-memory fork backend.
func (b *Builder) SetStore(store db.DB) *Builder {
	b.store = store
	return b
}

// SetDialer overrides how remote bindings are established. Tests use this to
// inject fakes.
func (b *Builder) SetDialer(dialer remote.Dialer) *Builder {
	b.dialer = dialer
	return b
}

// AddAccount inserts an account at an explicit address. A duplicate address
// overwrites the earlier entry.
func (b *Builder) AddAccount(key solana.PublicKey, account *types.Account) *Builder {
	b.accounts[key] = account
	return b
}

// AddProgram inserts executable bytecode at an explicit address, rent-exempt
// and owned by the loader.
func (b *Builder) AddProgram(key solana.PublicKey, data []byte) *Builder {
	return b.AddRentExemptAccountWithData(key, solana.BPFLoaderProgramID, data, true)
}

func (b *Builder) AddRentExemptAccountWithData(key solana.PublicKey, owner solana.PublicKey, data []byte, executable bool) *Builder {
	return b.AddAccount(key, &types.Account{
		Lamports:   bank.MinimumRentExemptBalance(uint64(len(data))),
		Owner:      owner,
		Data:       data,
		Executable: executable,
	})
}

func (b *Builder) AddAccountWithLamports(key solana.PublicKey, owner solana.PublicKey, lamports uint64) *Builder {
	return b.AddAccount(key, &types.Account{
		Lamports: lamports,
		Owner:    owner,
		Data:     []byte{},
	})
}

// Build finalizes the genesis state into a running Executor: it constructs
// the engine's initial fork, binds the remote client, and performs one
// initial clock advance so the executor starts on a non-genesis token.
func (b *Builder) Build() (*Executor, error) {
	store := b.store
	if store == nil {
		store = memorydb.NewDB()
	}

	engine, err := bank.New(store, b.accounts)
	if err != nil {
		return nil, fmt.Errorf("build genesis bank: %w", err)
	}

	client, err := b.dialer(b.endpoint, b.commitment)
	if err != nil {
		return nil, fmt.Errorf("bind remote ledger source: %w", err)
	}

	e := &Executor{
		bank:        engine,
		remote:      client,
		dialer:      b.dialer,
		fetchPolicy: b.fetchPolicy,
		faucet:      b.faucet,
		logger:      log.NewLogger("executor"),
	}
	e.AdvanceClock(nil)

	e.logger.Info().
		Str("endpoint", client.Endpoint()).
		Str("commitment", string(client.Commitment())).
		Str("store", store.Type()).
		Msg("Executor ready")
	return e, nil
}

// New builds an Executor with the default genesis and binding.
func New() (*Executor, error) {
	builder, err := NewBuilder()
	if err != nil {
		return nil, err
	}
	return builder.Build()
}
