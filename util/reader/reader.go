package reader

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	cbcommon "github.com/tranvictor/carebook/common"
)

var ErrNoNodes = errors.New("no ethereum node configured")

// EthReader fans every read out to all of its nodes and returns the first
// successful answer.
type EthReader struct {
	nodes map[string]EthereumNode
}

func NewEthReader(nodes map[string]string) *EthReader {
	ns := map[string]EthereumNode{}
	for name, url := range nodes {
		ns[name] = NewOneNodeReader(name, url)
	}
	return &EthReader{nodes: ns}
}

func NewEthReaderWithNodes(nodes ...EthereumNode) *EthReader {
	ns := map[string]EthereumNode{}
	for _, n := range nodes {
		ns[n.NodeName()] = n
	}
	return &EthReader{nodes: ns}
}

func wrapError(e error, name string) error {
	if e == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", name, e)
}

type nodeResult[T any] struct {
	value T
	err   error
}

func firstSuccess[T any](er *EthReader, call func(n EthereumNode) (T, error)) (T, error) {
	var zero T
	if len(er.nodes) == 0 {
		return zero, ErrNoNodes
	}
	resCh := make(chan nodeResult[T], len(er.nodes))
	for name := range er.nodes {
		n := er.nodes[name]
		go func() {
			value, err := call(n)
			resCh <- nodeResult[T]{
				value: value,
				err:   wrapError(err, n.NodeName()),
			}
		}()
	}
	errs := []error{}
	for i := 0; i < len(er.nodes); i++ {
		result := <-resCh
		if result.err == nil {
			return result.value, nil
		}
		errs = append(errs, result.err)
	}
	return zero, fmt.Errorf("couldn't read from any nodes: %w", errors.Join(errs...))
}

func (er *EthReader) ChainID(ctx context.Context) (*big.Int, error) {
	return firstSuccess(er, func(n EthereumNode) (*big.Int, error) {
		return n.ChainID(ctx)
	})
}

func (er *EthReader) EstimateGas(ctx context.Context, from, to common.Address, data []byte) (uint64, error) {
	return firstSuccess(er, func(n EthereumNode) (uint64, error) {
		return n.EstimateGas(ctx, from, to, data)
	})
}

func (er *EthReader) GetPendingNonce(ctx context.Context, address common.Address) (uint64, error) {
	return firstSuccess(er, func(n EthereumNode) (uint64, error) {
		return n.GetPendingNonce(ctx, address)
	})
}

func (er *EthReader) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return firstSuccess(er, func(n EthereumNode) (*types.Receipt, error) {
		return n.TransactionReceipt(ctx, txHash)
	})
}

type txByHash struct {
	tx        *cbcommon.Transaction
	isPending bool
}

func (er *EthReader) TransactionByHash(ctx context.Context, txHash common.Hash) (*cbcommon.Transaction, bool, error) {
	res, err := firstSuccess(er, func(n EthereumNode) (txByHash, error) {
		tx, isPending, err := n.TransactionByHash(ctx, txHash)
		return txByHash{tx, isPending}, err
	})
	return res.tx, res.isPending, err
}

func (er *EthReader) HeaderByNumber(ctx context.Context, number int64) (*types.Header, error) {
	return firstSuccess(er, func(n EthereumNode) (*types.Header, error) {
		return n.HeaderByNumber(ctx, number)
	})
}

func (er *EthReader) ReadContractToBytes(
	ctx context.Context,
	atBlock int64,
	from common.Address,
	caddr common.Address,
	abi *abi.ABI,
	method string,
	args ...interface{},
) ([]byte, error) {
	return firstSuccess(er, func(n EthereumNode) ([]byte, error) {
		return n.ReadContractToBytes(ctx, atBlock, from, caddr, abi, method, args...)
	})
}

// ReadContractWithABIAndFrom calls method as from on the latest block and
// unpacks the outputs into result.
func (er *EthReader) ReadContractWithABIAndFrom(
	ctx context.Context,
	result interface{},
	from common.Address,
	caddr common.Address,
	abi *abi.ABI,
	method string,
	args ...interface{},
) error {
	responseBytes, err := er.ReadContractToBytes(ctx, -1, from, caddr, abi, method, args...)
	if err != nil {
		return err
	}
	return abi.UnpackIntoInterface(result, method, responseBytes)
}

// TxInfoFromHash reports where the tx is in its lifecycle. Only a failure to
// talk to every node is returned as an error, with TxStatusError.
func (er *EthReader) TxInfoFromHash(ctx context.Context, tx common.Hash) (cbcommon.TxInfo, error) {
	txObj, isPending, err := er.TransactionByHash(ctx, tx)
	if errors.Is(err, ethereum.NotFound) {
		return cbcommon.TxInfo{Status: cbcommon.TxStatusNotFound}, nil
	}
	if err != nil {
		return cbcommon.TxInfo{Status: cbcommon.TxStatusError}, err
	}
	if isPending {
		return cbcommon.TxInfo{Status: cbcommon.TxStatusPending, Tx: txObj}, nil
	}

	receipt, err := er.TransactionReceipt(ctx, tx)
	if errors.Is(err, ethereum.NotFound) || (err == nil && receipt == nil) {
		return cbcommon.TxInfo{Status: cbcommon.TxStatusPending, Tx: txObj}, nil
	}
	if err != nil {
		return cbcommon.TxInfo{Status: cbcommon.TxStatusError, Tx: txObj}, err
	}

	// pre-byzantium receipts carry a post state root instead of a status,
	// those txs are considered done
	if len(receipt.PostState) == len(common.Hash{}) || receipt.Status == types.ReceiptStatusSuccessful {
		return cbcommon.TxInfo{Status: cbcommon.TxStatusDone, Tx: txObj, Receipt: receipt}, nil
	}
	return cbcommon.TxInfo{Status: cbcommon.TxStatusReverted, Tx: txObj, Receipt: receipt}, nil
}

// CheckDynamicFeeTxAvailable detects EIP-1559 support by looking for a base
// fee on the latest header.
func (er *EthReader) CheckDynamicFeeTxAvailable(ctx context.Context) (bool, error) {
	header, err := er.HeaderByNumber(ctx, -1)
	if err != nil {
		return false, err
	}
	return header.BaseFee != nil && header.BaseFee.Cmp(common.Big0) > 0, nil
}

// add 20% tip to miners compared to what returned from the node to improve UX
// a bit more
func (er *EthReader) GetSuggestedGasTipCap(ctx context.Context) (float64, error) {
	tip, err := firstSuccess(er, func(n EthereumNode) (*big.Int, error) {
		return n.SuggestedGasTipCap(ctx)
	})
	if err != nil {
		return 0, err
	}
	return cbcommon.BigToFloat(tip, 9) * 1.2, nil
}

// add 50% to max gas price because the next blocks based price can be increased
// according to ethereum protocol
func (er *EthReader) RecommendedGasPrice(ctx context.Context) (float64, error) {
	price, err := firstSuccess(er, func(n EthereumNode) (*big.Int, error) {
		return n.SuggestedGasPrice(ctx)
	})
	if err != nil {
		return 0, err
	}
	return cbcommon.BigToFloat(price, 9) * 1.5, nil
}
