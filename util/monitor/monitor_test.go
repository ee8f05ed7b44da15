package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cbcommon "github.com/tranvictor/carebook/common"
)

type step struct {
	status cbcommon.TxStatus
	err    error
}

// scriptedReader replays steps and repeats the last one forever.
type scriptedReader struct {
	mu    sync.Mutex
	steps []step
	calls int
}

func (r *scriptedReader) TxInfoFromHash(ctx context.Context, hash common.Hash) (cbcommon.TxInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.calls
	if i >= len(r.steps) {
		i = len(r.steps) - 1
	}
	r.calls++
	s := r.steps[i]
	return cbcommon.TxInfo{Status: s.status}, s.err
}

var hash = common.HexToHash("0xabcdef")

func TestWaitUntilMined(t *testing.T) {
	r := &scriptedReader{steps: []step{
		{status: cbcommon.TxStatusNotFound},
		{status: cbcommon.TxStatusPending},
		{status: cbcommon.TxStatusDone},
	}}
	m := NewTxMonitorWithOptions(r, time.Millisecond, time.Minute, 3)
	info, err := m.Wait(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, cbcommon.TxStatusDone, info.Status)
	assert.Equal(t, 3, r.calls)
}

func TestWaitReverted(t *testing.T) {
	r := &scriptedReader{steps: []step{{status: cbcommon.TxStatusReverted}}}
	m := NewTxMonitorWithOptions(r, time.Millisecond, time.Minute, 3)
	info, err := m.Wait(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, cbcommon.TxStatusReverted, info.Status)
}

func TestWaitTxLost(t *testing.T) {
	r := &scriptedReader{steps: []step{{status: cbcommon.TxStatusNotFound}}}
	m := NewTxMonitorWithOptions(r, time.Millisecond, 5*time.Millisecond, 3)
	info, err := m.Wait(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, cbcommon.TxStatusLost, info.Status)
}

func TestWaitNotLostOnceSeenOnNode(t *testing.T) {
	r := &scriptedReader{steps: []step{
		{status: cbcommon.TxStatusPending},
		{status: cbcommon.TxStatusNotFound},
		{status: cbcommon.TxStatusNotFound},
		{status: cbcommon.TxStatusNotFound},
		{status: cbcommon.TxStatusNotFound},
		{status: cbcommon.TxStatusDone},
	}}
	m := NewTxMonitorWithOptions(r, 2*time.Millisecond, time.Nanosecond, 3)
	info, err := m.Wait(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, cbcommon.TxStatusDone, info.Status)
}

func TestWaitTooManyRPCErrors(t *testing.T) {
	boom := errors.New("node down")
	r := &scriptedReader{steps: []step{{status: cbcommon.TxStatusError, err: boom}}}
	m := NewTxMonitorWithOptions(r, time.Millisecond, time.Minute, 3)
	_, err := m.Wait(context.Background(), hash)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooManyRPCErrors)
	assert.Equal(t, 3, r.calls)
}

func TestWaitRecoversFromTransientErrors(t *testing.T) {
	boom := errors.New("timeout")
	r := &scriptedReader{steps: []step{
		{status: cbcommon.TxStatusError, err: boom},
		{status: cbcommon.TxStatusError, err: boom},
		{status: cbcommon.TxStatusPending},
		{status: cbcommon.TxStatusError, err: boom},
		{status: cbcommon.TxStatusError, err: boom},
		{status: cbcommon.TxStatusDone},
	}}
	m := NewTxMonitorWithOptions(r, time.Millisecond, time.Minute, 3)
	info, err := m.Wait(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, cbcommon.TxStatusDone, info.Status)
}

func TestWaitCancelled(t *testing.T) {
	r := &scriptedReader{steps: []step{{status: cbcommon.TxStatusPending}}}
	m := NewTxMonitorWithOptions(r, time.Millisecond, time.Minute, 3)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := m.Wait(ctx, hash)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMakeWaitChannel(t *testing.T) {
	r := &scriptedReader{steps: []step{{status: cbcommon.TxStatusDone}}}
	m := NewTxMonitorWithOptions(r, time.Millisecond, time.Minute, 3)
	select {
	case res := <-m.MakeWaitChannel(context.Background(), hash):
		require.NoError(t, res.Err)
		assert.Equal(t, cbcommon.TxStatusDone, res.Info.Status)
	case <-time.After(time.Second):
		t.Fatal("wait channel never delivered")
	}
}
