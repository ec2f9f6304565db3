package evm

import "context"

// WSClient defines EVM WebSocket subscription interface.
type WSClient interface {
	// SubscribeLogs subscribes to contract logs matching the filter.
	SubscribeLogs(ctx context.Context, filter LogsFilter) (<-chan LogNotification, error)

	// Close closes the WebSocket connection.
	Close() error
}

// LogsFilter defines the eth_subscribe("logs") filter.
type LogsFilter struct {
	// Addresses restricts logs to these contract addresses.
	Addresses []string
	// Topics filters by position; an empty slot matches anything.
	Topics [][]string
}

// LogNotification represents one log delivered by a subscription.
type LogNotification struct {
	Address     string
	Topics      []string
	Data        string
	BlockNumber uint64
	TxHash      string
	LogIndex    uint64
	Removed     bool // true when the log was dropped by a reorg
}
