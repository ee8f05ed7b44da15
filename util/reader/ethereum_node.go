package reader

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	cbcommon "github.com/tranvictor/carebook/common"
)

// EthereumNode is one json-rpc endpoint. Every call is bounded by TIMEOUT on
// top of the caller's context.
type EthereumNode interface {
	NodeName() string
	NodeURL() string
	ChainID(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, from common.Address, to common.Address, data []byte) (uint64, error)
	GetPendingNonce(ctx context.Context, address common.Address) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	TransactionByHash(ctx context.Context, txHash common.Hash) (tx *cbcommon.Transaction, isPending bool, err error)
	SuggestedGasPrice(ctx context.Context) (*big.Int, error)
	SuggestedGasTipCap(ctx context.Context) (*big.Int, error)
	ReadContractToBytes(
		ctx context.Context,
		atBlock int64,
		from common.Address,
		caddr common.Address,
		abi *abi.ABI,
		method string,
		args ...interface{},
	) ([]byte, error)
	HeaderByNumber(ctx context.Context, number int64) (*types.Header, error)
}
