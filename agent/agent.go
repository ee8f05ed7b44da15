// Package agent models the signing agent the client talks to: something that
// holds the user's accounts, decides whether to expose them and signs
// transactions on the user's behalf after asking for consent.
package agent

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"

	cbcommon "github.com/tranvictor/carebook/common"
)

var (
	// ErrUserRejected is returned when the user refuses to expose accounts.
	ErrUserRejected = &cbcommon.ProviderError{
		Code:    cbcommon.CodeUserRejected,
		Message: "user rejected the request",
	}
	// ErrTxDenied is returned when the user refuses to sign a transaction.
	ErrTxDenied = &cbcommon.ProviderError{
		Code:    cbcommon.CodeUserRejected,
		Message: "user denied transaction signature",
	}
	ErrNoAccount = errors.New("no account is available in the agent")
)

// Signer signs transactions for one address.
type Signer interface {
	Address() common.Address
	SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Agent is the signing capability. A nil Agent means there is none.
type Agent interface {
	// RequestAccounts asks the user to expose their accounts. The first
	// address is the active one.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// CurrentSigner returns the signer of the active account.
	CurrentSigner(ctx context.Context) (Signer, error)
	// SubscribeAccountsChanged delivers the exposed account list every time
	// it changes. An empty list means access was revoked.
	SubscribeAccountsChanged(ch chan<- []common.Address) event.Subscription
}

// Approver asks the user for consent.
type Approver interface {
	ApproveConnection(ctx context.Context, accounts []common.Address) (bool, error)
	ApproveTx(ctx context.Context, from common.Address, tx *types.Transaction) (bool, error)
}
