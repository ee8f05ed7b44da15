// Package healthcare is the typed client of the healthcare records contract.
package healthcare

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/tranvictor/carebook/agent"
	cbcommon "github.com/tranvictor/carebook/common"
	"github.com/tranvictor/carebook/config"
)

const (
	opGetOwner   = "GetOwner"
	opGetRecords = "GetRecords"
)

var (
	errNoTransport = errors.New("no rpc transport configured")
	errNoSigner    = errors.New("no signer bound")
)

// Reader is the read side of the rpc transport. *reader.EthReader
// satisfies it.
type Reader interface {
	ChainID(ctx context.Context) (*big.Int, error)
	ReadContractToBytes(ctx context.Context, atBlock int64, from, caddr common.Address, abi *abi.ABI, method string, args ...interface{}) ([]byte, error)
	EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error)
	GetPendingNonce(ctx context.Context, address common.Address) (uint64, error)
	CheckDynamicFeeTxAvailable(ctx context.Context) (bool, error)
	RecommendedGasPrice(ctx context.Context) (float64, error)
	GetSuggestedGasTipCap(ctx context.Context) (float64, error)
}

// Broadcaster sends signed transactions. *broadcaster.Broadcaster
// satisfies it.
type Broadcaster interface {
	BroadcastTx(ctx context.Context, tx *types.Transaction) (string, bool, error)
}

// Client exposes the four contract operations. Every error it returns is a
// *common.Error.
type Client struct {
	Address     common.Address
	reader      Reader
	broadcaster Broadcaster
	abi         *abi.ABI

	GasLimit uint64
	// GasPrice and TipGas are in gwei, 0 asks the node.
	GasPrice float64
	TipGas   float64

	mu      sync.RWMutex
	signer  agent.Signer
	chainID *big.Int
	now     func() time.Time
}

// NewClient builds a client of the contract at address with gas settings
// taken from config.
func NewClient(address common.Address, r Reader, b Broadcaster) *Client {
	return &Client{
		Address:     address,
		reader:      r,
		broadcaster: b,
		abi:         GetABI(),
		GasLimit:    config.GasLimit,
		GasPrice:    config.GasPrice,
		TipGas:      config.TipGas,
		now:         time.Now,
	}
}

// Bind sets the signer used for every following call.
func (c *Client) Bind(signer agent.Signer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signer = signer
}

func (c *Client) Unbind() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signer = nil
}

// Signer returns the bound signer or nil.
func (c *Client) Signer() agent.Signer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.signer
}

func (c *Client) ready(op string) (agent.Signer, error) {
	if c.reader == nil {
		return nil, cbcommon.NewError(cbcommon.RemoteUnavailable, op, errNoTransport)
	}
	signer := c.Signer()
	if signer == nil {
		return nil, cbcommon.NewError(cbcommon.RemoteUnavailable, op, errNoSigner)
	}
	return signer, nil
}

func (c *Client) GetOwner(ctx context.Context) (common.Address, error) {
	signer, err := c.ready(opGetOwner)
	if err != nil {
		return common.Address{}, err
	}
	data, err := c.reader.ReadContractToBytes(ctx, -1, signer.Address(), c.Address, c.abi, methodGetOwner)
	if err != nil {
		return common.Address{}, cbcommon.ClassifyError(opGetOwner, err)
	}
	owner := common.Address{}
	if err = c.abi.UnpackIntoInterface(&owner, methodGetOwner, data); err != nil {
		return common.Address{}, cbcommon.ClassifyError(opGetOwner, fmt.Errorf("couldn't decode owner: %w", err))
	}
	return owner, nil
}

// GetRecords reads every record of patientID. A negative id is rejected
// without touching the network.
func (c *Client) GetRecords(ctx context.Context, patientID int64) ([]cbcommon.Record, error) {
	if patientID < 0 {
		return nil, cbcommon.Errorf(cbcommon.InvalidInput, opGetRecords, "patient id must not be negative, got %d", patientID)
	}
	signer, err := c.ready(opGetRecords)
	if err != nil {
		return nil, err
	}
	data, err := c.reader.ReadContractToBytes(
		ctx, -1, signer.Address(), c.Address, c.abi,
		methodGetPatientRecords, big.NewInt(patientID),
	)
	if err != nil {
		return nil, cbcommon.ClassifyError(opGetRecords, err)
	}
	raw := []RawRecord{}
	if err = c.abi.UnpackIntoInterface(&raw, methodGetPatientRecords, data); err != nil {
		return nil, cbcommon.ClassifyError(opGetRecords, fmt.Errorf("couldn't decode records: %w", err))
	}
	result := make([]cbcommon.Record, 0, len(raw))
	for _, r := range raw {
		result = append(result, r.toRecord())
	}
	log.Debug("Fetched records", "patient", patientID, "count", len(result))
	return result, nil
}

// AppendRecord submits an addRecord transaction with the fixed gas limit.
func (c *Client) AppendRecord(ctx context.Context, patientID int64, name, diagnosis, treatment string) (*cbcommon.TxHandle, error) {
	op := string(cbcommon.OpAppendRecord)
	if patientID < 0 {
		return nil, cbcommon.Errorf(cbcommon.InvalidInput, op, "patient id must not be negative, got %d", patientID)
	}
	for _, field := range [][2]string{
		{"patient name", name},
		{"diagnosis", diagnosis},
		{"treatment", treatment},
	} {
		if strings.TrimSpace(field[1]) == "" {
			return nil, cbcommon.Errorf(cbcommon.InvalidInput, op, "%s must not be empty", field[0])
		}
	}
	signer, err := c.ready(op)
	if err != nil {
		return nil, err
	}
	data, err := c.abi.Pack(methodAddRecord, big.NewInt(patientID), name, diagnosis, treatment)
	if err != nil {
		return nil, cbcommon.NewError(cbcommon.InvalidInput, op, err)
	}
	return c.send(ctx, cbcommon.OpAppendRecord, signer, data, c.GasLimit)
}

// AuthorizeAddress submits an authorizeProvider transaction. It does not
// look at the caller's owner status: the gas estimation reaches the node,
// which reverts for non owners.
func (c *Client) AuthorizeAddress(ctx context.Context, target string) (*cbcommon.TxHandle, error) {
	op := string(cbcommon.OpAuthorizeAddress)
	target = strings.TrimSpace(target)
	if !common.IsHexAddress(target) {
		return nil, cbcommon.Errorf(cbcommon.InvalidInput, op, "%q is not a hex address", target)
	}
	signer, err := c.ready(op)
	if err != nil {
		return nil, err
	}
	data, err := c.abi.Pack(methodAuthorizeProvider, common.HexToAddress(target))
	if err != nil {
		return nil, cbcommon.NewError(cbcommon.InvalidInput, op, err)
	}
	estimated, err := c.reader.EstimateGas(ctx, signer.Address(), c.Address, data)
	if err != nil {
		return nil, cbcommon.ClassifyError(op, err)
	}
	if estimated > c.GasLimit {
		return nil, cbcommon.Errorf(
			cbcommon.ResourceLimitExceeded, op,
			"estimated gas %d is above the limit %d", estimated, c.GasLimit,
		)
	}
	gasLimit := estimated + estimated/5
	if gasLimit > c.GasLimit {
		gasLimit = c.GasLimit
	}
	return c.send(ctx, cbcommon.OpAuthorizeAddress, signer, data, gasLimit)
}

func (c *Client) getChainID(ctx context.Context) (*big.Int, error) {
	c.mu.RLock()
	chainID := c.chainID
	c.mu.RUnlock()
	if chainID != nil {
		return chainID, nil
	}
	chainID, err := c.reader.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.chainID = chainID
	c.mu.Unlock()
	return chainID, nil
}

// fees returns the gas price (fee cap for dynamic fee txs) and tip in gwei.
func (c *Client) fees(ctx context.Context) (price float64, tip float64, dynamic bool, err error) {
	dynamic, err = c.reader.CheckDynamicFeeTxAvailable(ctx)
	if err != nil {
		return 0, 0, false, fmt.Errorf("couldn't check dynamic fee support: %w", err)
	}
	price = c.GasPrice
	if price == 0 {
		if price, err = c.reader.RecommendedGasPrice(ctx); err != nil {
			return 0, 0, false, fmt.Errorf("couldn't get fee suggestion: %w", err)
		}
	}
	if !dynamic {
		return price, 0, false, nil
	}
	tip = c.TipGas
	if tip == 0 {
		if tip, err = c.reader.GetSuggestedGasTipCap(ctx); err != nil {
			return 0, 0, false, fmt.Errorf("couldn't get tip suggestion: %w", err)
		}
	}
	if tip > price {
		tip = price
	}
	return price, tip, true, nil
}

func (c *Client) send(
	ctx context.Context,
	operation cbcommon.Operation,
	signer agent.Signer,
	data []byte,
	gasLimit uint64,
) (*cbcommon.TxHandle, error) {
	op := string(operation)
	if c.broadcaster == nil {
		return nil, cbcommon.NewError(cbcommon.RemoteUnavailable, op, errNoTransport)
	}
	chainID, err := c.getChainID(ctx)
	if err != nil {
		return nil, cbcommon.ClassifyError(op, fmt.Errorf("couldn't get chain id: %w", err))
	}
	from := signer.Address()
	nonce, err := c.reader.GetPendingNonce(ctx, from)
	if err != nil {
		return nil, cbcommon.ClassifyError(op, fmt.Errorf("couldn't get nonce: %w", err))
	}
	price, tip, dynamic, err := c.fees(ctx)
	if err != nil {
		// fee lookups only fail for node reasons
		return nil, cbcommon.NewError(cbcommon.Unknown, op, err)
	}

	tx := cbcommon.BuildExactTx(nonce, c.Address, big.NewInt(0), gasLimit, price, tip, data, dynamic, chainID)
	signedTx, err := signer.SignTx(ctx, tx, chainID)
	if err != nil {
		return nil, cbcommon.ClassifyError(op, err)
	}
	hash, broadcasted, err := c.broadcaster.BroadcastTx(ctx, signedTx)
	if !broadcasted {
		if err == nil {
			err = fmt.Errorf("no node accepted tx %s", hash)
		}
		return nil, cbcommon.ClassifyError(op, err)
	}
	log.Debug("Submitted tx", "op", op, "hash", hash, "from", from, "nonce", nonce, "gas", gasLimit)
	return &cbcommon.TxHandle{
		Operation:   operation,
		Hash:        signedTx.Hash(),
		From:        from,
		Nonce:       nonce,
		GasLimit:    gasLimit,
		SubmittedAt: c.now(),
	}, nil
}
