package config

import (
	"time"
)

const (
	DEFAULT_CONTRACT      string = "0x5B8C376CDb66bf68cFCb2A02662B7b1add0ac9ED"
	DEFAULT_GAS_LIMIT     uint64 = 300000
	DEFAULT_NETWORK       string = "sepolia"
	DEFAULT_POLL_INTERVAL        = 5 * time.Second
)

var (
	Network         string
	NodeURL         string
	ContractAddress string
	From            string

	// GasLimit is the fixed upper bound attached to every addRecord tx and
	// the cap applied to authorizeProvider gas estimation.
	GasLimit uint64
	// GasPrice and TipGas in gwei. 0 means ask the node.
	GasPrice float64
	TipGas   float64

	PollInterval time.Duration
	// LostTxTimeout is how long a tx may stay unknown to every node before
	// the monitor reports it lost. 0 disables the check.
	LostTxTimeout time.Duration
	// MaxRPCErrors is how many consecutive failed polls end a finality wait.
	MaxRPCErrors int

	Debug bool
)

func init() {
	Reset()
}

// Reset restores the defaults. Flags override them in cmd.
func Reset() {
	Network = DEFAULT_NETWORK
	NodeURL = ""
	ContractAddress = DEFAULT_CONTRACT
	From = ""
	GasLimit = DEFAULT_GAS_LIMIT
	GasPrice = 0
	TipGas = 0
	PollInterval = DEFAULT_POLL_INTERVAL
	LostTxTimeout = 3 * time.Minute
	MaxRPCErrors = 5
	Debug = false
}
