package healthcare

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/carebook/agent"
	cbcommon "github.com/tranvictor/carebook/common"
)

var contractAddr = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

type fakeReader struct {
	owner      common.Address
	records    []RawRecord
	readErr    error
	estimate   uint64
	estErr     error
	dynamic    bool
	reads      []string
	lastData   []byte
	nonceCalls int
	priceErr   error
	tipErr     error
}

func (r *fakeReader) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(31337), nil
}

func (r *fakeReader) ReadContractToBytes(ctx context.Context, atBlock int64, from, caddr common.Address, a *abi.ABI, method string, args ...interface{}) ([]byte, error) {
	r.reads = append(r.reads, method)
	if r.readErr != nil {
		return nil, r.readErr
	}
	switch method {
	case methodGetOwner:
		return a.Methods[method].Outputs.Pack(r.owner)
	case methodGetPatientRecords:
		return a.Methods[method].Outputs.Pack(r.records)
	}
	return nil, errors.New("unexpected method " + method)
}

func (r *fakeReader) EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error) {
	r.lastData = data
	return r.estimate, r.estErr
}

func (r *fakeReader) GetPendingNonce(ctx context.Context, address common.Address) (uint64, error) {
	r.nonceCalls++
	return 4, nil
}

func (r *fakeReader) CheckDynamicFeeTxAvailable(ctx context.Context) (bool, error) {
	return r.dynamic, nil
}

func (r *fakeReader) RecommendedGasPrice(ctx context.Context) (float64, error) {
	if r.priceErr != nil {
		return 0, r.priceErr
	}
	return 3, nil
}

func (r *fakeReader) GetSuggestedGasTipCap(ctx context.Context) (float64, error) {
	if r.tipErr != nil {
		return 0, r.tipErr
	}
	return 5, nil
}

type fakeBroadcaster struct {
	sent []*types.Transaction
	err  error
}

func (b *fakeBroadcaster) BroadcastTx(ctx context.Context, tx *types.Transaction) (string, bool, error) {
	if b.err != nil {
		return tx.Hash().Hex(), false, b.err
	}
	b.sent = append(b.sent, tx)
	return tx.Hash().Hex(), true, nil
}

type keySigner struct {
	key     *ecdsa.PrivateKey
	decline bool
}

func newKeySigner(t *testing.T) *keySigner {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &keySigner{key: key}
}

func (s *keySigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

func (s *keySigner) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if s.decline {
		return nil, agent.ErrTxDenied
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

func newTestClient(t *testing.T, r *fakeReader, b *fakeBroadcaster) (*Client, *keySigner) {
	c := NewClient(contractAddr, r, b)
	c.GasLimit = 3_000_000
	c.GasPrice = 0
	c.TipGas = 0
	c.now = func() time.Time { return time.Unix(1700000000, 0) }
	s := newKeySigner(t)
	c.Bind(s)
	return c, s
}

func TestGetOwner(t *testing.T) {
	owner := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	c, _ := newTestClient(t, &fakeReader{owner: owner}, &fakeBroadcaster{})
	got, err := c.GetOwner(context.Background())
	require.NoError(t, err)
	assert.Equal(t, owner, got)
}

func TestCallsRequireSigner(t *testing.T) {
	r := &fakeReader{}
	c, _ := newTestClient(t, r, &fakeBroadcaster{})
	c.Unbind()
	assert.Nil(t, c.Signer())

	_, err := c.GetOwner(context.Background())
	assert.True(t, cbcommon.IsKind(err, cbcommon.RemoteUnavailable))
	_, err = c.GetRecords(context.Background(), 1)
	assert.True(t, cbcommon.IsKind(err, cbcommon.RemoteUnavailable))
	_, err = c.AppendRecord(context.Background(), 1, "Alice", "Flu", "Rest")
	assert.True(t, cbcommon.IsKind(err, cbcommon.RemoteUnavailable))
	assert.Empty(t, r.reads)
}

func TestGetRecords(t *testing.T) {
	r := &fakeReader{records: []RawRecord{
		{RecordID: big.NewInt(1), PatientName: "Alice", Diagnosis: "Flu", Treatment: "Rest", Timestamp: big.NewInt(1700000000)},
		{RecordID: big.NewInt(2), PatientName: "Alice", Diagnosis: "Cold", Treatment: "Tea", Timestamp: big.NewInt(1700000100)},
	}}
	c, _ := newTestClient(t, r, &fakeBroadcaster{})
	records, err := c.GetRecords(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, cbcommon.Record{
		RecordID: 1, PatientName: "Alice", Diagnosis: "Flu", Treatment: "Rest", Timestamp: 1700000000,
	}, records[0])
	assert.Equal(t, uint64(2), records[1].RecordID)
}

func TestGetRecordsEmpty(t *testing.T) {
	c, _ := newTestClient(t, &fakeReader{records: []RawRecord{}}, &fakeBroadcaster{})
	records, err := c.GetRecords(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGetRecordsNegativePatient(t *testing.T) {
	r := &fakeReader{}
	c, _ := newTestClient(t, r, &fakeBroadcaster{})
	_, err := c.GetRecords(context.Background(), -1)
	assert.True(t, cbcommon.IsKind(err, cbcommon.InvalidInput))
	assert.Empty(t, r.reads)
}

func TestGetRecordsNodeDown(t *testing.T) {
	c, _ := newTestClient(t, &fakeReader{readErr: errors.New("dial tcp: connection refused")}, &fakeBroadcaster{})
	_, err := c.GetRecords(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, cbcommon.Unknown, cbcommon.KindOf(err))
}

func TestAppendRecord(t *testing.T) {
	r := &fakeReader{dynamic: true}
	b := &fakeBroadcaster{}
	c, s := newTestClient(t, r, b)

	handle, err := c.AppendRecord(context.Background(), 7, "Alice", "Flu", "Rest")
	require.NoError(t, err)
	require.Len(t, b.sent, 1)
	sent := b.sent[0]

	assert.Equal(t, cbcommon.OpAppendRecord, handle.Operation)
	assert.Equal(t, sent.Hash(), handle.Hash)
	assert.Equal(t, s.Address(), handle.From)
	assert.Equal(t, uint64(4), handle.Nonce)
	assert.Equal(t, uint64(3_000_000), handle.GasLimit)
	assert.Equal(t, time.Unix(1700000000, 0), handle.SubmittedAt)

	assert.Equal(t, uint64(3_000_000), sent.Gas())
	assert.Equal(t, contractAddr, *sent.To())
	assert.Equal(t, uint8(types.DynamicFeeTxType), sent.Type())
	// tip is capped at the fee cap
	assert.Equal(t, cbcommon.GweiToWei(3), sent.GasFeeCap())
	assert.Equal(t, cbcommon.GweiToWei(3), sent.GasTipCap())

	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(31337)), sent)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), from)

	args, err := c.abi.Methods[methodAddRecord].Inputs.Unpack(sent.Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewInt(7).Cmp(args[0].(*big.Int)))
	assert.Equal(t, []interface{}{"Alice", "Flu", "Rest"}, args[1:])
}

func TestAppendRecordLegacyFees(t *testing.T) {
	b := &fakeBroadcaster{}
	c, _ := newTestClient(t, &fakeReader{}, b)
	c.GasPrice = 2
	_, err := c.AppendRecord(context.Background(), 1, "Bob", "Sprain", "Ice")
	require.NoError(t, err)
	require.Len(t, b.sent, 1)
	assert.Equal(t, uint8(types.LegacyTxType), b.sent[0].Type())
	assert.Equal(t, cbcommon.GweiToWei(2), b.sent[0].GasPrice())
}

func TestAppendRecordValidation(t *testing.T) {
	tests := []struct {
		name      string
		patientID int64
		fields    [3]string
		contains  string
	}{
		{"negative patient", -1, [3]string{"Alice", "Flu", "Rest"}, "negative"},
		{"blank name", 1, [3]string{"  ", "Flu", "Rest"}, "patient name"},
		{"empty diagnosis", 1, [3]string{"Alice", "", "Rest"}, "diagnosis"},
		{"empty treatment", 1, [3]string{"Alice", "Flu", ""}, "treatment"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := &fakeReader{}
			b := &fakeBroadcaster{}
			c, _ := newTestClient(t, r, b)
			_, err := c.AppendRecord(context.Background(), tc.patientID, tc.fields[0], tc.fields[1], tc.fields[2])
			require.Error(t, err)
			assert.True(t, cbcommon.IsKind(err, cbcommon.InvalidInput))
			assert.Contains(t, err.Error(), tc.contains)
			assert.Empty(t, b.sent)
			assert.Zero(t, r.nonceCalls)
		})
	}
}

func TestAppendRecordDeclined(t *testing.T) {
	b := &fakeBroadcaster{}
	c, s := newTestClient(t, &fakeReader{}, b)
	s.decline = true
	_, err := c.AppendRecord(context.Background(), 1, "Alice", "Flu", "Rest")
	assert.True(t, cbcommon.IsKind(err, cbcommon.UserDeclined))
	assert.Empty(t, b.sent)
}

func TestAppendRecordBroadcastFailure(t *testing.T) {
	c, _ := newTestClient(t, &fakeReader{}, &fakeBroadcaster{err: errors.New("insufficient funds for gas * price + value")})
	_, err := c.AppendRecord(context.Background(), 1, "Alice", "Flu", "Rest")
	assert.True(t, cbcommon.IsKind(err, cbcommon.ResourceLimitExceeded))
}

func TestAppendRecordFeeLookupFailure(t *testing.T) {
	refused := errors.New("dial tcp 127.0.0.1:8545: connect: connection refused")
	for name, r := range map[string]*fakeReader{
		"price": {priceErr: refused},
		"tip":   {dynamic: true, tipErr: refused},
	} {
		t.Run(name, func(t *testing.T) {
			b := &fakeBroadcaster{}
			c, _ := newTestClient(t, r, b)
			_, err := c.AppendRecord(context.Background(), 1, "Alice", "Flu", "Rest")
			require.Error(t, err)
			assert.Equal(t, cbcommon.Unknown, cbcommon.KindOf(err))
			assert.NotContains(t, err.Error(), cbcommon.ResourceLimitExceeded.Message())
			assert.ErrorIs(t, err, refused)
			assert.Empty(t, b.sent)
		})
	}
}

func TestAuthorizeAddress(t *testing.T) {
	r := &fakeReader{estimate: 50_000}
	b := &fakeBroadcaster{}
	c, _ := newTestClient(t, r, b)
	provider := "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

	handle, err := c.AuthorizeAddress(context.Background(), " "+provider+" ")
	require.NoError(t, err)
	assert.Equal(t, cbcommon.OpAuthorizeAddress, handle.Operation)
	assert.Equal(t, uint64(60_000), handle.GasLimit)
	require.Len(t, b.sent, 1)
	assert.Equal(t, uint64(60_000), b.sent[0].Gas())
	assert.Equal(t, r.lastData, b.sent[0].Data())

	args, err := c.abi.Methods[methodAuthorizeProvider].Inputs.Unpack(b.sent[0].Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(provider), args[0])
}

func TestAuthorizeAddressGasCappedAtLimit(t *testing.T) {
	r := &fakeReader{estimate: 2_900_000}
	b := &fakeBroadcaster{}
	c, _ := newTestClient(t, r, b)
	handle, err := c.AuthorizeAddress(context.Background(), "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	require.NoError(t, err)
	assert.Equal(t, uint64(3_000_000), handle.GasLimit)
}

func TestAuthorizeAddressAboveLimit(t *testing.T) {
	b := &fakeBroadcaster{}
	c, _ := newTestClient(t, &fakeReader{estimate: 3_000_001}, b)
	_, err := c.AuthorizeAddress(context.Background(), "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	assert.True(t, cbcommon.IsKind(err, cbcommon.ResourceLimitExceeded))
	assert.Empty(t, b.sent)
}

func TestAuthorizeAddressInvalid(t *testing.T) {
	r := &fakeReader{}
	c, _ := newTestClient(t, r, &fakeBroadcaster{})
	for _, input := range []string{"", "bob", "0x1234", "0xZZ997970C51812dc3A010C7d01b50e0d17dc79C8"} {
		_, err := c.AuthorizeAddress(context.Background(), input)
		assert.True(t, cbcommon.IsKind(err, cbcommon.InvalidInput), input)
	}
	assert.Nil(t, r.lastData)
}

type revertError struct{}

func (revertError) Error() string  { return "execution reverted" }
func (revertError) ErrorCode() int { return 3 }

func TestAuthorizeAddressByNonOwner(t *testing.T) {
	b := &fakeBroadcaster{}
	c, _ := newTestClient(t, &fakeReader{estErr: revertError{}}, b)
	_, err := c.AuthorizeAddress(context.Background(), "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	assert.True(t, cbcommon.IsKind(err, cbcommon.RemoteRejected))
	assert.Empty(t, b.sent)
}

func TestAuthorizeAddressDeclined(t *testing.T) {
	b := &fakeBroadcaster{}
	c, s := newTestClient(t, &fakeReader{estimate: 50_000}, b)
	s.decline = true
	_, err := c.AuthorizeAddress(context.Background(), "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	assert.True(t, cbcommon.IsKind(err, cbcommon.UserDeclined))
	assert.ErrorIs(t, err, agent.ErrTxDenied)
	assert.Empty(t, b.sent)
}
