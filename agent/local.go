package agent

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"

	cbcommon "github.com/tranvictor/carebook/common"
	"github.com/tranvictor/carebook/util/account"
)

var errNotAuthorized = &cbcommon.ProviderError{
	Code:    cbcommon.CodeUnauthorized,
	Message: "the requested account has not been authorized by the user",
}

// LocalAgent is an Agent over accounts unlocked in this process. The first
// account is the active one.
type LocalAgent struct {
	mu       sync.Mutex
	approver Approver
	accounts []*account.Account
	exposed  bool

	feed  event.Feed
	scope event.SubscriptionScope
}

func NewLocalAgent(approver Approver, accounts ...*account.Account) *LocalAgent {
	if approver == nil {
		approver = AutoApprover{}
	}
	return &LocalAgent{
		approver: approver,
		accounts: accounts,
	}
}

func (a *LocalAgent) addressesLocked() []common.Address {
	result := make([]common.Address, 0, len(a.accounts))
	for _, acc := range a.accounts {
		result = append(result, acc.Address())
	}
	return result
}

// Addresses returns every account the agent holds, exposed or not.
func (a *LocalAgent) Addresses() []common.Address {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addressesLocked()
}

func (a *LocalAgent) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	a.mu.Lock()
	addresses := a.addressesLocked()
	exposed := a.exposed
	a.mu.Unlock()

	if len(addresses) == 0 {
		return nil, ErrNoAccount
	}
	if exposed {
		return addresses, nil
	}
	ok, err := a.approver.ApproveConnection(ctx, addresses)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Debug("Account access declined")
		return nil, ErrUserRejected
	}

	a.mu.Lock()
	a.exposed = true
	a.mu.Unlock()
	return addresses, nil
}

func (a *LocalAgent) CurrentSigner(ctx context.Context) (Signer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.accounts) == 0 {
		return nil, ErrNoAccount
	}
	if !a.exposed {
		return nil, errNotAuthorized
	}
	return &accountSigner{acc: a.accounts[0], approver: a.approver}, nil
}

func (a *LocalAgent) SubscribeAccountsChanged(ch chan<- []common.Address) event.Subscription {
	return a.scope.Track(a.feed.Subscribe(ch))
}

// AddAccount appends acc to the agent. Subscribers are told when accounts
// are already exposed.
func (a *LocalAgent) AddAccount(acc *account.Account) {
	a.mu.Lock()
	for _, existing := range a.accounts {
		if existing.Address() == acc.Address() {
			a.mu.Unlock()
			return
		}
	}
	a.accounts = append(a.accounts, acc)
	exposed := a.exposed
	addresses := a.addressesLocked()
	a.mu.Unlock()

	if exposed {
		a.feed.Send(addresses)
	}
}

// SwitchAccount makes addr the active account.
func (a *LocalAgent) SwitchAccount(addr common.Address) error {
	a.mu.Lock()
	idx := -1
	for i, acc := range a.accounts {
		if acc.Address() == addr {
			idx = i
			break
		}
	}
	if idx < 0 {
		a.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoAccount, addr.Hex())
	}
	acc := a.accounts[idx]
	a.accounts = append(a.accounts[:idx], a.accounts[idx+1:]...)
	a.accounts = append([]*account.Account{acc}, a.accounts...)
	exposed := a.exposed
	addresses := a.addressesLocked()
	a.mu.Unlock()

	if exposed {
		a.feed.Send(addresses)
	}
	return nil
}

// Revoke withdraws account access. Subscribers receive an empty list.
func (a *LocalAgent) Revoke() {
	a.mu.Lock()
	a.exposed = false
	a.mu.Unlock()
	a.feed.Send([]common.Address{})
}

// Close ends every accounts-changed subscription.
func (a *LocalAgent) Close() {
	a.scope.Close()
}

type accountSigner struct {
	acc      *account.Account
	approver Approver
}

func (s *accountSigner) Address() common.Address {
	return s.acc.Address()
}

func (s *accountSigner) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	ok, err := s.approver.ApproveTx(ctx, s.acc.Address(), tx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTxDenied
	}
	return s.acc.SignTx(tx, chainID)
}
