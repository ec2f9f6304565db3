package evm

import (
	"encoding/json"
	"fmt"
)

// CallMsg is a read-only contract call.
type CallMsg struct {
	From string // optional
	To   string
	Data []byte
}

// TxArgs describes a state-changing transaction. Gas 0 lets the node estimate.
type TxArgs struct {
	From string
	To   string
	Data []byte
	Gas  uint64
}

// RPCError is a JSON-RPC 2.0 error object returned by the node.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}
