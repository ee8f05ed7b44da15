package dapp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/carebook/agent"
	cbcommon "github.com/tranvictor/carebook/common"
	"github.com/tranvictor/carebook/tx"
	"github.com/tranvictor/carebook/ui"
	"github.com/tranvictor/carebook/util/account"
)

// memContract is an in-memory healthcare contract.
type memContract struct {
	mu         sync.Mutex
	owner      common.Address
	signer     agent.Signer
	records    map[int64][]cbcommon.Record
	readErr    error
	appendErr  error
	authErr    error
	reads      int
	authorized []string
}

func newMemContract(owner common.Address) *memContract {
	return &memContract{owner: owner, records: map[int64][]cbcommon.Record{}}
}

func (c *memContract) Bind(s agent.Signer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signer = s
}

func (c *memContract) Unbind() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signer = nil
}

func (c *memContract) GetOwner(ctx context.Context) (common.Address, error) {
	return c.owner, nil
}

func (c *memContract) GetRecords(ctx context.Context, patientID int64) ([]cbcommon.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	if c.readErr != nil {
		return nil, c.readErr
	}
	if patientID < 0 {
		return nil, cbcommon.Errorf(cbcommon.InvalidInput, "GetRecords", "negative id")
	}
	return append([]cbcommon.Record{}, c.records[patientID]...), nil
}

func (c *memContract) AppendRecord(ctx context.Context, patientID int64, name, diagnosis, treatment string) (*cbcommon.TxHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.appendErr != nil {
		return nil, c.appendErr
	}
	list := c.records[patientID]
	c.records[patientID] = append(list, cbcommon.Record{
		RecordID:    uint64(len(list) + 1),
		PatientName: name,
		Diagnosis:   diagnosis,
		Treatment:   treatment,
		Timestamp:   1700000000,
	})
	return &cbcommon.TxHandle{
		Operation:   cbcommon.OpAppendRecord,
		Hash:        common.HexToHash("0xaa"),
		From:        c.signer.Address(),
		SubmittedAt: time.Now(),
	}, nil
}

func (c *memContract) AuthorizeAddress(ctx context.Context, target string) (*cbcommon.TxHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.authErr != nil {
		return nil, c.authErr
	}
	if !cbcommon.SameAddress(c.signer.Address().Hex(), c.owner.Hex()) {
		return nil, cbcommon.ClassifyError("AuthorizeAddress", errors.New("execution reverted: only owner"))
	}
	c.authorized = append(c.authorized, target)
	return &cbcommon.TxHandle{
		Operation:   cbcommon.OpAuthorizeAddress,
		Hash:        common.HexToHash("0xbb"),
		SubmittedAt: time.Now(),
	}, nil
}

type staticWaiter struct {
	status cbcommon.TxStatus
}

func (w staticWaiter) Wait(ctx context.Context, hash common.Hash) (cbcommon.TxInfo, error) {
	return cbcommon.TxInfo{Status: w.status}, nil
}

func newAccount(t *testing.T) *account.Account {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return account.NewPrivateKeyAccount(key)
}

func setup(t *testing.T, status cbcommon.TxStatus, owner bool) (*Client, *memContract, *ui.RecordingUI) {
	t.Helper()
	acc := newAccount(t)
	ownerAddr := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	if owner {
		ownerAddr = acc.Address()
	}
	contract := newMemContract(ownerAddr)
	u := ui.NewRecordingUI()
	c := NewClient(agent.NewLocalAgent(nil, acc), contract, staticWaiter{status: status}, u)
	t.Cleanup(c.Close)
	return c, contract, u
}

func TestConnectNotifiesRole(t *testing.T) {
	c, _, u := setup(t, cbcommon.TxStatusDone, true)
	s, err := c.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, s.Owner())
	assert.True(t, u.HasMessage("(owner)"))

	c.Disconnect()
	assert.False(t, c.State().Session.Connected)
	assert.Contains(t, u.InfoMessages(), "Disconnected")
}

func TestConnectWithoutAgent(t *testing.T) {
	u := ui.NewRecordingUI()
	c := NewClient(nil, newMemContract(common.Address{}), staticWaiter{}, u)
	_, err := c.Connect(context.Background())
	assert.True(t, cbcommon.IsKind(err, cbcommon.AgentUnavailable))
	require.Len(t, u.ErrorMessages(), 1)
	assert.Contains(t, u.ErrorMessages()[0], cbcommon.AgentUnavailable.Message())
}

func TestOperationsNeedSession(t *testing.T) {
	c, contract, u := setup(t, cbcommon.TxStatusDone, true)
	_, err := c.FetchRecords(context.Background(), 1)
	assert.True(t, cbcommon.IsKind(err, cbcommon.RemoteUnavailable))
	_, err = c.AddRecord(context.Background(), 1, "Alice", "Flu", "Rest")
	assert.True(t, cbcommon.IsKind(err, cbcommon.RemoteUnavailable))
	_, err = c.AuthorizeProvider(context.Background(), "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	assert.True(t, cbcommon.IsKind(err, cbcommon.RemoteUnavailable))
	assert.Zero(t, contract.reads)
	assert.Len(t, u.ErrorMessages(), 3)
}

func TestFetchRecords(t *testing.T) {
	c, contract, u := setup(t, cbcommon.TxStatusDone, false)
	contract.records[3] = []cbcommon.Record{{RecordID: 1, PatientName: "Bob", Diagnosis: "Sprain", Treatment: "Ice"}}
	_, err := c.Connect(context.Background())
	require.NoError(t, err)

	records, err := c.FetchRecords(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	state := c.State()
	assert.Equal(t, int64(3), state.PatientID)
	assert.True(t, state.Loaded)
	assert.Equal(t, records, state.Records)
	assert.True(t, u.HasMessage("Fetched 1 record(s) of patient 3"))

	contract.mu.Lock()
	contract.readErr = errors.New("dial tcp: connection refused")
	contract.mu.Unlock()
	_, err = c.FetchRecords(context.Background(), 3)
	require.Error(t, err)
	state = c.State()
	assert.False(t, state.Loaded)
	assert.Equal(t, int64(-1), state.PatientID)
	assert.Empty(t, state.Records)
}

func TestAddRecordRefreshesBeforeReturning(t *testing.T) {
	c, _, u := setup(t, cbcommon.TxStatusDone, false)
	_, err := c.Connect(context.Background())
	require.NoError(t, err)

	pc, err := c.AddRecord(context.Background(), 5, "Carol", "Migraine", "Sleep")
	require.NoError(t, err)
	assert.Equal(t, tx.StatusConfirmed, pc.Status)
	assert.Equal(t, int64(5), pc.PatientID)

	state := c.State()
	assert.Equal(t, int64(5), state.PatientID)
	require.Len(t, state.Records, 1)
	assert.Equal(t, "Migraine", state.Records[0].Diagnosis)
	assert.Empty(t, state.Pending)
	require.Len(t, u.CriticalMessages(), 1)
	assert.Contains(t, u.CriticalMessages()[0], "AppendRecord tx broadcasted")
	assert.True(t, u.HasMessage("Record added for patient 5"))
}

func TestAddRecordReverted(t *testing.T) {
	c, contract, u := setup(t, cbcommon.TxStatusReverted, false)
	_, err := c.Connect(context.Background())
	require.NoError(t, err)

	pc, err := c.AddRecord(context.Background(), 5, "Carol", "Migraine", "Sleep")
	assert.True(t, cbcommon.IsKind(err, cbcommon.TransactionFailed))
	assert.Equal(t, tx.StatusReverted, pc.Status)
	assert.Zero(t, contract.reads)
	assert.False(t, c.State().Loaded)
	assert.Len(t, u.ErrorMessages(), 1)
}

func TestAddRecordDeclined(t *testing.T) {
	c, contract, _ := setup(t, cbcommon.TxStatusDone, false)
	contract.appendErr = cbcommon.ClassifyError("AppendRecord", agent.ErrTxDenied)
	_, err := c.Connect(context.Background())
	require.NoError(t, err)

	pc, err := c.AddRecord(context.Background(), 5, "Carol", "Migraine", "Sleep")
	assert.Nil(t, pc)
	assert.True(t, cbcommon.IsKind(err, cbcommon.UserDeclined))
	assert.Empty(t, c.State().Pending)
}

func TestAuthorizeProvider(t *testing.T) {
	c, contract, u := setup(t, cbcommon.TxStatusDone, true)
	_, err := c.Connect(context.Background())
	require.NoError(t, err)

	provider := "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	pc, err := c.AuthorizeProvider(context.Background(), provider)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), pc.PatientID)
	assert.Equal(t, []string{provider}, contract.authorized)
	assert.True(t, u.HasMessage("Provider "+provider+" authorized"))
}

func TestAuthorizeProviderByNonOwner(t *testing.T) {
	c, contract, _ := setup(t, cbcommon.TxStatusDone, false)
	_, err := c.Connect(context.Background())
	require.NoError(t, err)

	_, err = c.AuthorizeProvider(context.Background(), "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	assert.True(t, cbcommon.IsKind(err, cbcommon.RemoteRejected))
	assert.Empty(t, contract.authorized)
}

func TestAuthorizeProviderDeclined(t *testing.T) {
	c, contract, _ := setup(t, cbcommon.TxStatusDone, true)
	contract.authErr = cbcommon.ClassifyError("AuthorizeAddress", agent.ErrTxDenied)
	_, err := c.Connect(context.Background())
	require.NoError(t, err)

	pc, err := c.AuthorizeProvider(context.Background(), "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	assert.Nil(t, pc)
	assert.True(t, cbcommon.IsKind(err, cbcommon.UserDeclined))
	assert.Empty(t, contract.authorized)
	assert.Empty(t, c.State().Pending)
}

func TestParsePatientID(t *testing.T) {
	id, err := ParsePatientID(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	id, err = ParsePatientID("-3")
	require.NoError(t, err)
	assert.Equal(t, int64(-3), id)

	for _, input := range []string{"", "abc", "1.5", "99999999999999999999"} {
		_, err = ParsePatientID(input)
		assert.True(t, cbcommon.IsKind(err, cbcommon.InvalidInput), input)
	}
}
