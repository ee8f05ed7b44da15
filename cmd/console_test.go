package cmd

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/carebook/agent"
	cbcommon "github.com/tranvictor/carebook/common"
	"github.com/tranvictor/carebook/dapp"
	"github.com/tranvictor/carebook/ui"
	"github.com/tranvictor/carebook/util/account"
	"github.com/tranvictor/carebook/util/addrbook"
)

type consoleContract struct {
	mu      sync.Mutex
	owner   common.Address
	records map[int64][]cbcommon.Record
	granted []string
}

func (c *consoleContract) Bind(agent.Signer) {}
func (c *consoleContract) Unbind()           {}

func (c *consoleContract) GetOwner(ctx context.Context) (common.Address, error) {
	return c.owner, nil
}

func (c *consoleContract) GetRecords(ctx context.Context, patientID int64) ([]cbcommon.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]cbcommon.Record{}, c.records[patientID]...), nil
}

func (c *consoleContract) AppendRecord(ctx context.Context, patientID int64, name, diagnosis, treatment string) (*cbcommon.TxHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.records[patientID]
	c.records[patientID] = append(list, cbcommon.Record{
		RecordID: uint64(len(list) + 1), PatientName: name, Diagnosis: diagnosis, Treatment: treatment, Timestamp: 1700000000,
	})
	return &cbcommon.TxHandle{Operation: cbcommon.OpAppendRecord, Hash: common.HexToHash("0xaa"), SubmittedAt: time.Now()}, nil
}

func (c *consoleContract) AuthorizeAddress(ctx context.Context, target string) (*cbcommon.TxHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.granted = append(c.granted, target)
	return &cbcommon.TxHandle{Operation: cbcommon.OpAuthorizeAddress, Hash: common.HexToHash("0xbb"), SubmittedAt: time.Now()}, nil
}

type doneWaiter struct{}

func (doneWaiter) Wait(ctx context.Context, hash common.Hash) (cbcommon.TxInfo, error) {
	return cbcommon.TxInfo{Status: cbcommon.TxStatusDone}, nil
}

const clinicHex = "0x00000000000000000000000000000000000000a1"

func newTestConsole(t *testing.T, inputs ...string) (*console, *consoleContract, *ui.RecordingUI) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	acc := account.NewPrivateKeyAccount(key)
	a := agent.NewLocalAgent(nil, acc)
	t.Cleanup(a.Close)

	contract := &consoleContract{owner: acc.Address(), records: map[int64][]cbcommon.Record{}}
	u := ui.NewRecordingUI(inputs...)
	client := dapp.NewClient(a, contract, doneWaiter{}, u)
	t.Cleanup(client.Close)
	book := addrbook.Map{clinicHex: "City Clinic"}
	return &console{
		u:        u,
		client:   client,
		agent:    a,
		resolver: book,
		namer:    book,
		now:      time.Now,
	}, contract, u
}

func TestConsoleSession(t *testing.T) {
	c, contract, u := newTestConsole(t,
		"connect",
		`add 3 "Jane Doe" flu rest`,
		"fetch 3",
		`authorize "city clinic"`,
		"exit",
		"state",
	)
	require.NoError(t, c.run(context.Background()))

	assert.True(t, u.HasMessage("(owner)"))
	assert.True(t, u.HasMessage("Record added for patient 3"))
	assert.Contains(t, u.Messages("TableRow"), "1 | 2023-11-14 22:13:20 | Jane Doe | flu | rest")
	assert.True(t, u.HasMessage("Fetched 1 record(s) of patient 3"))
	assert.Equal(t, []string{common.HexToAddress(clinicHex).Hex()}, contract.granted)
	assert.Empty(t, u.ErrorMessages())
	// exit stops before the state command
	assert.NotContains(t, u.Messages("Section"), "Session")
}

func TestConsoleEndsOnEOF(t *testing.T) {
	c, _, u := newTestConsole(t, "help")
	require.NoError(t, c.run(context.Background()))
	assert.True(t, u.HasMessage("show this help"))
}

func TestConsoleReportsBadInput(t *testing.T) {
	c, _, u := newTestConsole(t,
		"frobnicate",
		"fetch",
		"fetch abc",
		`add 1 "unterminated`,
		"switch nobody",
		"fetch 1",
	)
	require.NoError(t, c.run(context.Background()))

	errs := u.ErrorMessages()
	require.Len(t, errs, 6)
	assert.Contains(t, errs[0], `Unknown command "frobnicate"`)
	assert.Contains(t, errs[1], "fetch takes 1 argument(s), got 0")
	assert.Contains(t, errs[2], cbcommon.InvalidInput.Message())
	assert.Contains(t, errs[3], "unterminated")
	assert.Contains(t, errs[4], "neither an account number nor an address")
	// fetching before connecting
	assert.Contains(t, errs[5], cbcommon.RemoteUnavailable.Message())
}

func TestConsoleRevoke(t *testing.T) {
	c, _, u := newTestConsole(t, "connect", "revoke")
	require.NoError(t, c.run(context.Background()))
	assert.True(t, u.HasMessage("Account access revoked."))
	assert.Eventually(t, func() bool {
		return !c.client.State().Session.Connected
	}, time.Second, 5*time.Millisecond)
}
