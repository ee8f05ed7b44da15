package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	cbcommon "github.com/tranvictor/carebook/common"
	"github.com/tranvictor/carebook/config"
)

var ErrTooManyRPCErrors = errors.New("too many consecutive rpc errors while waiting for the tx")

type TxInfoReader interface {
	TxInfoFromHash(ctx context.Context, hash common.Hash) (cbcommon.TxInfo, error)
}

// TxMonitor polls the nodes until a tx is mined. It has no deadline of its
// own: the context, the lost tx window and the rpc error budget are the only
// ways out besides finality.
type TxMonitor struct {
	reader    TxInfoReader
	interval  time.Duration
	lostAfter time.Duration
	maxErrors int
}

func NewTxMonitor(r TxInfoReader) *TxMonitor {
	return NewTxMonitorWithOptions(r, config.PollInterval, config.LostTxTimeout, config.MaxRPCErrors)
}

func NewTxMonitorWithOptions(r TxInfoReader, interval, lostAfter time.Duration, maxErrors int) *TxMonitor {
	if interval <= 0 {
		interval = config.DEFAULT_POLL_INTERVAL
	}
	return &TxMonitor{
		reader:    r,
		interval:  interval,
		lostAfter: lostAfter,
		maxErrors: maxErrors,
	}
}

type WaitResult struct {
	Info cbcommon.TxInfo
	Err  error
}

// Wait blocks until the tx is done, reverted or lost. A non nil error means
// the outcome is unknown.
func (m *TxMonitor) Wait(ctx context.Context, tx common.Hash) (cbcommon.TxInfo, error) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	startTime := time.Now()
	isOnNode := false
	consecutiveErrs := 0

	for {
		txinfo, err := m.reader.TxInfoFromHash(ctx, tx)
		switch {
		case err != nil || txinfo.Status == cbcommon.TxStatusError:
			consecutiveErrs++
			log.Debug("Polling tx failed", "hash", tx, "attempt", consecutiveErrs, "err", err)
			if m.maxErrors > 0 && consecutiveErrs >= m.maxErrors {
				return txinfo, fmt.Errorf("%w: %v", ErrTooManyRPCErrors, err)
			}
		case txinfo.Status == cbcommon.TxStatusNotFound:
			consecutiveErrs = 0
			if m.lostAfter > 0 && !isOnNode && time.Since(startTime) > m.lostAfter {
				return cbcommon.TxInfo{Status: cbcommon.TxStatusLost}, nil
			}
		case txinfo.Status == cbcommon.TxStatusPending:
			consecutiveErrs = 0
			isOnNode = true
		case txinfo.Status.Final():
			return txinfo, nil
		}

		select {
		case <-ctx.Done():
			return cbcommon.TxInfo{Status: cbcommon.TxStatusError}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (m *TxMonitor) MakeWaitChannel(ctx context.Context, tx common.Hash) <-chan WaitResult {
	result := make(chan WaitResult, 1)
	go func() {
		info, err := m.Wait(ctx, tx)
		result <- WaitResult{Info: info, Err: err}
	}()
	return result
}
