// Package tx follows state-changing contract calls from submission to
// finality.
package tx

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	cbcommon "github.com/tranvictor/carebook/common"
)

// Waiter blocks until a tx reaches finality. *monitor.TxMonitor satisfies
// it.
type Waiter interface {
	Wait(ctx context.Context, hash common.Hash) (cbcommon.TxInfo, error)
}

// SubmitFunc broadcasts a tx and returns its handle.
type SubmitFunc func(ctx context.Context) (*cbcommon.TxHandle, error)

// ConfirmedFunc runs after a tx is confirmed and before the confirmation is
// published.
type ConfirmedFunc func(ctx context.Context) error

// Coordinator runs calls through Submitted -> Confirmed | Reverted |
// Errored. Overlapping calls are not serialized.
type Coordinator struct {
	waiter Waiter

	mu       sync.Mutex
	inflight map[uuid.UUID]*PendingCall

	feed event.Feed
}

func NewCoordinator(w Waiter) *Coordinator {
	return &Coordinator{
		waiter:   w,
		inflight: map[uuid.UUID]*PendingCall{},
	}
}

// SubscribePending delivers a copy of a PendingCall on every status change.
func (c *Coordinator) SubscribePending(ch chan<- PendingCall) event.Subscription {
	return c.feed.Subscribe(ch)
}

// Pending returns the unresolved calls, oldest first.
func (c *Coordinator) Pending() []PendingCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]PendingCall, 0, len(c.inflight))
	for _, pc := range c.inflight {
		result = append(result, *pc)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SubmittedAt.Before(result[j].SubmittedAt)
	})
	return result
}

func (c *Coordinator) track(pc *PendingCall) {
	c.mu.Lock()
	c.inflight[pc.ID] = pc
	snapshot := *pc
	c.mu.Unlock()
	c.feed.Send(snapshot)
}

func (c *Coordinator) resolve(pc *PendingCall, status Status) PendingCall {
	c.mu.Lock()
	pc.Status = status
	delete(c.inflight, pc.ID)
	snapshot := *pc
	c.mu.Unlock()
	c.feed.Send(snapshot)
	return snapshot
}

// Run submits the call and waits for its outcome. It returns nil and the
// submit error when nothing was broadcasted. Otherwise the returned
// PendingCall carries the final status and err is:
//   - nil when confirmed and onConfirmed succeeded,
//   - the classified onConfirmed error when confirmed but it failed,
//   - TransactionFailed when reverted,
//   - ConfirmationUnknown when the wait failed.
func (c *Coordinator) Run(
	ctx context.Context,
	patientID int64,
	submit SubmitFunc,
	onConfirmed ConfirmedFunc,
) (*PendingCall, error) {
	handle, err := submit(ctx)
	if err != nil {
		return nil, err
	}
	op := string(handle.Operation)

	pc := &PendingCall{
		ID:          uuid.New(),
		Operation:   handle.Operation,
		PatientID:   patientID,
		SubmittedAt: handle.SubmittedAt,
		Hash:        handle.Hash,
		Status:      StatusSubmitted,
	}
	c.track(pc)
	log.Debug("Waiting for tx", "op", op, "id", pc.ID, "hash", pc.Hash)

	info, err := c.waiter.Wait(ctx, handle.Hash)
	if err == nil && info.Status == cbcommon.TxStatusLost {
		err = fmt.Errorf("tx %s was dropped by the network", handle.Hash.Hex())
	}
	if err != nil {
		result := c.resolve(pc, StatusErrored)
		log.Warn("Couldn't confirm tx", "op", op, "hash", pc.Hash, "err", err)
		return &result, cbcommon.NewError(cbcommon.ConfirmationUnknown, op, err)
	}

	switch info.Status {
	case cbcommon.TxStatusDone:
		var followErr error
		if onConfirmed != nil {
			if ferr := onConfirmed(ctx); ferr != nil {
				followErr = cbcommon.ClassifyError(op, ferr)
			}
		}
		result := c.resolve(pc, StatusConfirmed)
		log.Info("Tx confirmed", "op", op, "hash", pc.Hash)
		return &result, followErr
	case cbcommon.TxStatusReverted:
		result := c.resolve(pc, StatusReverted)
		log.Info("Tx reverted", "op", op, "hash", pc.Hash)
		txErr := cbcommon.Errorf(cbcommon.TransactionFailed, op, "tx %s reverted", pc.Hash.Hex())
		return &result, txErr
	default:
		result := c.resolve(pc, StatusErrored)
		return &result, cbcommon.Errorf(
			cbcommon.ConfirmationUnknown, op,
			"unexpected tx status %s for %s", info.Status, pc.Hash.Hex(),
		)
	}
}
