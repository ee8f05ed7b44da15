package agent

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	cbcommon "github.com/tranvictor/carebook/common"
	"github.com/tranvictor/carebook/ui"
)

// UIApprover asks for consent on the terminal.
type UIApprover struct {
	u ui.UI
}

func NewUIApprover(u ui.UI) *UIApprover {
	return &UIApprover{u: u}
}

func (a *UIApprover) ApproveConnection(ctx context.Context, accounts []common.Address) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	a.u.Section("Connection request")
	rows := make([][2]string, 0, len(accounts))
	for i, acc := range accounts {
		rows = append(rows, [2]string{fmt.Sprintf("Account %d", i+1), acc.Hex()})
	}
	a.u.KeyValue(rows)
	return a.u.Confirm("Expose these accounts to carebook?", true), nil
}

func (a *UIApprover) ApproveTx(ctx context.Context, from common.Address, tx *types.Transaction) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	a.u.Section("Confirm tx data before signing")
	to := "contract creation"
	if tx.To() != nil {
		to = tx.To().Hex()
	}
	a.u.KeyValue([][2]string{
		{"From", from.Hex()},
		{"To", to},
		{"Nonce", fmt.Sprintf("%d", tx.Nonce())},
		{"Gas limit", fmt.Sprintf("%d", tx.Gas())},
		{"Gas price", fmt.Sprintf("%.4f gwei", cbcommon.BigToFloat(tx.GasFeeCap(), 9))},
		{"Data", fmt.Sprintf("%d bytes", len(tx.Data()))},
	})
	return a.u.Confirm("Sign and broadcast this transaction?", false), nil
}

// AutoApprover approves everything. It backs non interactive runs.
type AutoApprover struct{}

func (AutoApprover) ApproveConnection(context.Context, []common.Address) (bool, error) {
	return true, nil
}

func (AutoApprover) ApproveTx(context.Context, common.Address, *types.Transaction) (bool, error) {
	return true, nil
}
