package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// EIP-1193 provider error codes, plus the code geth nodes use for reverts.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeDisconnected      = 4900
	codeExecutionReverted = 3
)

// ProviderError is the error a signing agent returns. It satisfies rpc.Error
// so agent errors and node errors are classified the same way.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

func (e *ProviderError) ErrorCode() int {
	return e.Code
}

var (
	declinedHints = []string{
		"user denied",
		"user rejected",
		"rejected by user",
		"user cancelled",
		"user canceled",
		"action_rejected",
	}
	revertHints = []string{"revert"}
	gasHints    = []string{"gas"}
)

func containsAny(msg string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(msg, h) {
			return true
		}
	}
	return false
}

// Classify maps a raw failure to its kind. Structured codes are consulted
// first; matching on the error message is a best effort fallback for nodes
// and agents that do not report codes. Classify never panics.
func Classify(err error) ErrorKind {
	if err == nil {
		return Unknown
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case CodeUserRejected:
			return UserDeclined
		case codeExecutionReverted:
			return RemoteRejected
		}
	}
	if RevertReason(err) != "" {
		return RemoteRejected
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, declinedHints):
		return UserDeclined
	case containsAny(msg, revertHints):
		return RemoteRejected
	case containsAny(msg, gasHints):
		return ResourceLimitExceeded
	}
	return Unknown
}

// RevertReason decodes the solidity revert reason carried by a node error,
// or returns "" when there is none.
func RevertReason(err error) string {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return ""
	}
	var data []byte
	switch d := dataErr.ErrorData().(type) {
	case string:
		decoded, decodeErr := hexutil.Decode(d)
		if decodeErr != nil {
			return ""
		}
		data = decoded
	case []byte:
		data = d
	default:
		return ""
	}
	reason, unpackErr := abi.UnpackRevert(data)
	if unpackErr != nil {
		return ""
	}
	return reason
}

// ClassifyError wraps a raw failure of op into a classified *Error. Errors
// that are already classified are returned untouched.
func ClassifyError(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	result := NewError(Classify(err), op, err)
	if reason := RevertReason(err); reason != "" {
		result.Detail = fmt.Sprintf("reason: %s", reason)
	}
	return result
}
