package common

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Record is one healthcare record as stored by the contract. Records are
// never mutated after they are decoded.
type Record struct {
	RecordID    uint64 `json:"record_id"`
	PatientName string `json:"patient_name"`
	Diagnosis   string `json:"diagnosis"`
	Treatment   string `json:"treatment"`
	Timestamp   uint64 `json:"timestamp"`
}

func (r Record) Time() time.Time {
	return time.Unix(int64(r.Timestamp), 0)
}

// Operation names a state-changing contract call.
type Operation string

const (
	OpAppendRecord     Operation = "AppendRecord"
	OpAuthorizeAddress Operation = "AuthorizeAddress"
)

// TxHandle is what a state-changing call returns once its transaction has
// been broadcasted. It says nothing about the outcome.
type TxHandle struct {
	Operation   Operation
	Hash        common.Hash
	From        common.Address
	Nonce       uint64
	GasLimit    uint64
	SubmittedAt time.Time
}
