package common

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// RawTxToHash returns the hash of a hex encoded signed transaction.
func RawTxToHash(data string) string {
	return crypto.Keccak256Hash(hexutil.MustDecode(data)).Hex()
}

// BuildExactTx builds an unsigned contract call. With dynamicFee set it
// builds an EIP-1559 tx where priceGwei is the fee cap, otherwise a legacy
// tx.
func BuildExactTx(
	nonce uint64,
	to common.Address,
	value *big.Int,
	gasLimit uint64,
	priceGwei, tipGwei float64,
	data []byte,
	dynamicFee bool,
	chainID *big.Int,
) *types.Transaction {
	if value == nil {
		value = big.NewInt(0)
	}
	gasPrice := GweiToWei(priceGwei)
	if dynamicFee {
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: GweiToWei(tipGwei),
			GasFeeCap: gasPrice,
			Gas:       gasLimit,
			To:        &to,
			Value:     value,
			Data:      data,
		})
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &to,
		Value:    value,
		Data:     data,
	})
}
