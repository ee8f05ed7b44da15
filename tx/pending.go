package tx

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	cbcommon "github.com/tranvictor/carebook/common"
)

type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusConfirmed Status = "confirmed"
	StatusReverted  Status = "reverted"
	StatusErrored   Status = "errored"
)

// Resolved reports whether the call left the Submitted state.
func (s Status) Resolved() bool {
	return s != StatusSubmitted
}

// PendingCall tracks one state-changing call from the moment its tx was
// broadcasted. PatientID is -1 for calls that are not about a patient.
type PendingCall struct {
	ID          uuid.UUID
	Operation   cbcommon.Operation
	PatientID   int64
	SubmittedAt time.Time
	Hash        common.Hash
	Status      Status
}
