// Package dapp ties the session, the contract client, the transaction
// coordinator and the record store together behind one method per user
// intent.
package dapp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"github.com/tranvictor/carebook/agent"
	cbcommon "github.com/tranvictor/carebook/common"
	"github.com/tranvictor/carebook/records"
	"github.com/tranvictor/carebook/session"
	"github.com/tranvictor/carebook/tx"
)

// Notifier shows outcomes to the user. ui.UI satisfies it.
type Notifier interface {
	Info(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Critical(format string, args ...any)
}

// Contract is everything the client needs from the contract client.
// *healthcare.Client satisfies it.
type Contract interface {
	session.Contract
	GetRecords(ctx context.Context, patientID int64) ([]cbcommon.Record, error)
	AppendRecord(ctx context.Context, patientID int64, name, diagnosis, treatment string) (*cbcommon.TxHandle, error)
	AuthorizeAddress(ctx context.Context, target string) (*cbcommon.TxHandle, error)
}

// State is a snapshot of everything the UI displays.
type State struct {
	Session   session.Session
	PatientID int64
	Loaded    bool
	Records   []cbcommon.Record
	Pending   []tx.PendingCall
}

type Client struct {
	contract    Contract
	sessions    *session.Manager
	coordinator *tx.Coordinator
	store       *records.Store
	notifier    Notifier
}

// NewClient wires the components. a may be nil, in which case Connect
// fails with AgentUnavailable.
func NewClient(a agent.Agent, contract Contract, waiter tx.Waiter, notifier Notifier) *Client {
	c := &Client{
		contract:    contract,
		coordinator: tx.NewCoordinator(waiter),
		store:       records.NewStore(),
		notifier:    notifier,
	}
	c.sessions = session.NewManager(a, contract, c.store, c.report)
	return c
}

func (c *Client) Sessions() *session.Manager {
	return c.sessions
}

func (c *Client) Coordinator() *tx.Coordinator {
	return c.coordinator
}

func (c *Client) Store() *records.Store {
	return c.store
}

// Start begins listening to account changes of the agent.
func (c *Client) Start() {
	c.sessions.Start()
}

func (c *Client) Close() {
	c.sessions.Close()
}

func (c *Client) State() State {
	return State{
		Session:   c.sessions.Session(),
		PatientID: c.store.PatientID(),
		Loaded:    c.store.Loaded(),
		Records:   c.store.Records(),
		Pending:   c.coordinator.Pending(),
	}
}

func (c *Client) report(err error) {
	if err == nil {
		return
	}
	classified := cbcommon.ClassifyError("", err)
	log.Debug("Operation failed", "kind", classified.Kind, "err", err)
	if c.notifier != nil {
		c.notifier.Error("%s", classified.Error())
	}
}

func (c *Client) requireSession(op string) error {
	if !c.sessions.Session().Connected {
		return cbcommon.Errorf(cbcommon.RemoteUnavailable, op, "wallet is not connected")
	}
	return nil
}

func (c *Client) Connect(ctx context.Context) (session.Session, error) {
	s, err := c.sessions.Connect(ctx)
	if err != nil {
		c.report(err)
		return s, err
	}
	if c.notifier != nil {
		role := "provider"
		if s.Owner() {
			role = "owner"
		}
		c.notifier.Success("Connected as %s (%s)", s.Address.Hex(), role)
	}
	return s, nil
}

func (c *Client) Disconnect() {
	c.sessions.Disconnect()
	if c.notifier != nil {
		c.notifier.Info("Disconnected")
	}
}

// FetchRecords replaces the store with the records of patientID. A failed
// fetch clears the store.
func (c *Client) FetchRecords(ctx context.Context, patientID int64) ([]cbcommon.Record, error) {
	if err := c.requireSession("GetRecords"); err != nil {
		c.report(err)
		return nil, err
	}
	result, err := c.refresh(ctx, patientID)
	if err != nil {
		c.report(err)
		return nil, err
	}
	if c.notifier != nil {
		c.notifier.Success("Fetched %d record(s) of patient %d", len(result), patientID)
	}
	return result, nil
}

func (c *Client) refresh(ctx context.Context, patientID int64) ([]cbcommon.Record, error) {
	result, err := c.contract.GetRecords(ctx, patientID)
	if err != nil {
		c.store.Clear()
		return nil, err
	}
	c.store.Replace(patientID, result)
	return result, nil
}

func (c *Client) submitted(handle *cbcommon.TxHandle) {
	if c.notifier != nil {
		c.notifier.Critical("%s tx broadcasted: %s", handle.Operation, handle.Hash.Hex())
	}
}

// AddRecord appends a record and, once the tx is confirmed, refreshes the
// records of patientID before returning.
func (c *Client) AddRecord(ctx context.Context, patientID int64, name, diagnosis, treatment string) (*tx.PendingCall, error) {
	op := string(cbcommon.OpAppendRecord)
	if err := c.requireSession(op); err != nil {
		c.report(err)
		return nil, err
	}
	pc, err := c.coordinator.Run(
		ctx,
		patientID,
		func(ctx context.Context) (*cbcommon.TxHandle, error) {
			handle, err := c.contract.AppendRecord(ctx, patientID, name, diagnosis, treatment)
			if err == nil {
				c.submitted(handle)
			}
			return handle, err
		},
		func(ctx context.Context) error {
			_, err := c.refresh(ctx, patientID)
			return err
		},
	)
	if err != nil {
		c.report(err)
		return pc, err
	}
	if c.notifier != nil {
		c.notifier.Success("Record added for patient %d", patientID)
	}
	return pc, nil
}

// AuthorizeProvider grants provider write access. The local owner flag is
// not consulted: the contract decides.
func (c *Client) AuthorizeProvider(ctx context.Context, provider string) (*tx.PendingCall, error) {
	op := string(cbcommon.OpAuthorizeAddress)
	if err := c.requireSession(op); err != nil {
		c.report(err)
		return nil, err
	}
	pc, err := c.coordinator.Run(
		ctx,
		-1,
		func(ctx context.Context) (*cbcommon.TxHandle, error) {
			handle, err := c.contract.AuthorizeAddress(ctx, provider)
			if err == nil {
				c.submitted(handle)
			}
			return handle, err
		},
		nil,
	)
	if err != nil {
		c.report(err)
		return pc, err
	}
	if c.notifier != nil {
		c.notifier.Success("Provider %s authorized", provider)
	}
	return pc, nil
}

// ParsePatientID turns user input into a patient id. Range checks are left
// to the contract client.
func ParsePatientID(input string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil {
		return 0, cbcommon.NewError(
			cbcommon.InvalidInput, "ParsePatientID",
			fmt.Errorf("%q is not a patient id: %w", input, err),
		)
	}
	return id, nil
}
