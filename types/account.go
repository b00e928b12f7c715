package types

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Account is the ledger account value. Accounts are immutable values,
// replaced wholesale on mutation.
type Account struct {
	Lamports   uint64           `json:"lamports"`
	Owner      solana.PublicKey `json:"owner"`
	Data       []byte           `json:"data"`
	Executable bool             `json:"executable"`
	RentEpoch  uint64           `json:"rentEpoch"`
}

// Exists reports whether the account carries any state. A zero-balance,
// empty, system-owned account is indistinguishable from an absent one.
func (a *Account) Exists() bool {
	if a == nil {
		return false
	}
	return a.Lamports > 0 || len(a.Data) > 0 || a.Executable || !a.Owner.Equals(solana.SystemProgramID)
}

// Clone returns a deep copy.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	data := make([]byte, len(a.Data))
	copy(data, a.Data)
	return &Account{
		Lamports:   a.Lamports,
		Owner:      a.Owner,
		Data:       data,
		Executable: a.Executable,
		RentEpoch:  a.RentEpoch,
	}
}

type accountWire struct {
	Lamports   uint64
	Owner      solana.PublicKey
	Data       []byte
	Executable bool
	RentEpoch  uint64
}

// Serialize encodes the account in the ledger ecosystem's bin format for
// storage in the fork.
func (a *Account) Serialize() ([]byte, error) {
	buf := new(bytes.Buffer)
	err := bin.NewBinEncoder(buf).Encode(accountWire{
		Lamports:   a.Lamports,
		Owner:      a.Owner,
		Data:       a.Data,
		Executable: a.Executable,
		RentEpoch:  a.RentEpoch,
	})
	if err != nil {
		return nil, fmt.Errorf("serialize account: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeAccount decodes an account stored by Serialize.
func DeserializeAccount(data []byte) (*Account, error) {
	var wire accountWire
	if err := bin.NewBinDecoder(data).Decode(&wire); err != nil {
		return nil, fmt.Errorf("deserialize account: %w", err)
	}
	return &Account{
		Lamports:   wire.Lamports,
		Owner:      wire.Owner,
		Data:       wire.Data,
		Executable: wire.Executable,
		RentEpoch:  wire.RentEpoch,
	}, nil
}
