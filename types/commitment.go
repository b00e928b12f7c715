package types

import "fmt"

// Commitment is the consistency strength requested from the remote ledger
// source.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

func ParseCommitment(s string) (Commitment, error) {
	switch Commitment(s) {
	case CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized:
		return Commitment(s), nil
	case "":
		return CommitmentProcessed, nil
	}
	return "", fmt.Errorf("unknown commitment level %q", s)
}

// RPCConfig is the remote binding: the (endpoint, commitment) pair used for
// fetches.
type RPCConfig struct {
	Endpoint   string     `json:"rpcEndpoint"`
	Commitment Commitment `json:"commitmentLevel"`
}
