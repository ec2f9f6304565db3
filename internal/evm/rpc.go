package evm

import (
	"context"

	"github.com/ethereum/go-ethereum/core/types"
)

// RPCClient defines the EVM JSON-RPC calls the gallery needs.
type RPCClient interface {
	// Call executes a read-only message call against the latest block (eth_call).
	Call(ctx context.Context, msg CallMsg) ([]byte, error)

	// ChainID returns the chain id reported by the node (eth_chainId).
	ChainID(ctx context.Context) (uint64, error)

	// BlockNumber returns the latest block number (eth_blockNumber).
	BlockNumber(ctx context.Context) (uint64, error)

	// SendTransaction submits a transaction for the node or wallet to sign (eth_sendTransaction).
	// Returns the transaction hash.
	SendTransaction(ctx context.Context, tx TxArgs) (string, error)

	// TransactionReceipt returns the receipt of a mined transaction
	// (eth_getTransactionReceipt). Returns ErrReceiptNotFound while pending.
	TransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error)
}
