// Package session owns the connection between the user's signing agent and
// the contract client.
package session

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"

	"github.com/tranvictor/carebook/agent"
	cbcommon "github.com/tranvictor/carebook/common"
)

const (
	opConnect          = "Connect"
	opAccountsChanged  = "AccountsChanged"
	accountsBufferSize = 4
)

// Session is the observable connection state. IsOwner is nil whenever
// Connected is false.
type Session struct {
	Address   *common.Address
	IsOwner   *bool
	Connected bool
}

func (s Session) Owner() bool {
	return s.IsOwner != nil && *s.IsOwner
}

// Contract is the part of the contract client a session drives.
// *healthcare.Client satisfies it.
type Contract interface {
	Bind(signer agent.Signer)
	Unbind()
	GetOwner(ctx context.Context) (common.Address, error)
}

// Clearer drops cached data on disconnect. *records.Store satisfies it.
type Clearer interface {
	Clear()
}

type Manager struct {
	agent    agent.Agent
	contract Contract
	store    Clearer
	onError  func(error)

	mu      sync.RWMutex
	session Session
	feed    event.Feed

	startOnce sync.Once
	closeOnce sync.Once
	sub       event.Subscription
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewManager builds a manager. a may be nil when no signing agent exists,
// store may be nil. onError receives failures of the accounts-changed
// listener.
func NewManager(a agent.Agent, contract Contract, store Clearer, onError func(error)) *Manager {
	if onError == nil {
		onError = func(err error) {
			log.Warn("Handling accounts change failed", "err", err)
		}
	}
	return &Manager{
		agent:    a,
		contract: contract,
		store:    store,
		onError:  onError,
	}
}

func (m *Manager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

func (m *Manager) SubscribeSession(ch chan<- Session) event.Subscription {
	return m.feed.Subscribe(ch)
}

func (m *Manager) set(s Session) {
	m.mu.Lock()
	m.session = s
	m.mu.Unlock()
	m.feed.Send(s)
}

// Connect asks the agent for account access, binds the active signer and
// works out whether it owns the contract. Any failure leaves the session
// disconnected.
func (m *Manager) Connect(ctx context.Context) (Session, error) {
	if m.agent == nil {
		return m.Session(), cbcommon.Errorf(cbcommon.AgentUnavailable, opConnect, "no signing agent")
	}
	accounts, err := m.agent.RequestAccounts(ctx)
	if err != nil {
		return m.fail(err)
	}
	if len(accounts) == 0 {
		return m.fail(agent.ErrNoAccount)
	}
	signer, err := m.agent.CurrentSigner(ctx)
	if err != nil {
		return m.fail(err)
	}
	m.contract.Bind(signer)
	owner, err := m.contract.GetOwner(ctx)
	if err != nil {
		return m.fail(err)
	}

	address := signer.Address()
	isOwner := cbcommon.SameAddress(address.Hex(), owner.Hex())
	s := Session{
		Address:   &address,
		IsOwner:   &isOwner,
		Connected: true,
	}
	m.set(s)
	log.Info("Connected", "address", address, "owner", isOwner)
	return s, nil
}

func (m *Manager) fail(cause error) (Session, error) {
	m.contract.Unbind()
	if m.store != nil {
		m.store.Clear()
	}
	m.set(Session{})
	log.Debug("Connecting failed", "err", cause)
	return Session{}, cbcommon.NewError(cbcommon.AuthenticationFailed, opConnect, cause)
}

// Disconnect forgets the session locally. It never fails and can be called
// any number of times. Submitted transactions are not affected.
func (m *Manager) Disconnect() {
	m.contract.Unbind()
	if m.store != nil {
		m.store.Clear()
	}
	m.set(Session{})
	log.Debug("Disconnected")
}

// OnAccountsChanged applies an accounts-changed notification. An empty
// list means access was revoked.
func (m *Manager) OnAccountsChanged(ctx context.Context, accounts []common.Address) error {
	if len(accounts) == 0 {
		m.Disconnect()
		return nil
	}
	_, err := m.Connect(ctx)
	return err
}

// Start registers the accounts-changed listener. Only the first call has an
// effect.
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		if m.agent == nil {
			return
		}
		ctx, cancel := context.WithCancel(context.Background())
		ch := make(chan []common.Address, accountsBufferSize)
		m.sub = m.agent.SubscribeAccountsChanged(ch)
		m.cancel = cancel
		m.done = make(chan struct{})
		go m.listen(ctx, ch)
	})
}

func (m *Manager) listen(ctx context.Context, ch <-chan []common.Address) {
	defer close(m.done)
	for {
		select {
		case accounts := <-ch:
			log.Debug("Accounts changed", "accounts", len(accounts))
			if err := m.OnAccountsChanged(ctx, accounts); err != nil {
				m.onError(cbcommon.ClassifyError(opAccountsChanged, err))
			}
		case err := <-m.sub.Err():
			if err != nil {
				m.onError(cbcommon.ClassifyError(opAccountsChanged, err))
			}
			return
		case <-ctx.Done():
			return
		}
	}
}

// Close deregisters the listener and waits for it to stop.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.startOnce.Do(func() {})
		if m.cancel == nil {
			return
		}
		m.sub.Unsubscribe()
		m.cancel()
		<-m.done
	})
}
