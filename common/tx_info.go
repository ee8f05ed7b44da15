package common

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type TxStatus string

const (
	TxStatusDone     TxStatus = "done"
	TxStatusReverted TxStatus = "reverted"
	TxStatusPending  TxStatus = "pending"
	TxStatusNotFound TxStatus = "notfound"
	TxStatusLost     TxStatus = "lost"
	TxStatusError    TxStatus = "error"
)

// Final reports whether the status can no longer change.
func (s TxStatus) Final() bool {
	return s == TxStatusDone || s == TxStatusReverted || s == TxStatusLost
}

type TxInfo struct {
	Status  TxStatus
	Tx      *Transaction
	Receipt *types.Receipt
}

// Transaction is a tx as returned by eth_getTransactionByHash, keeping the
// block fields that go-ethereum's types.Transaction drops.
type Transaction struct {
	*types.Transaction
	Extra TxExtraInfo `json:"extra"`
}

type TxExtraInfo struct {
	BlockNumber *string         `json:"blockNumber,omitempty"`
	BlockHash   *common.Hash    `json:"blockHash,omitempty"`
	From        *common.Address `json:"from,omitempty"`
}

func (tx *Transaction) UnmarshalJSON(msg []byte) error {
	if err := json.Unmarshal(msg, &tx.Transaction); err != nil {
		return err
	}
	return json.Unmarshal(msg, &tx.Extra)
}

// IsPending reports whether the tx is known to the node but not mined yet.
func (tx *Transaction) IsPending() bool {
	return tx.Extra.BlockNumber == nil
}
