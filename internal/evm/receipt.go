package evm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// ErrReceiptNotFound is returned while a transaction is still pending.
	ErrReceiptNotFound = errors.New("transaction receipt not found")

	errAwaitingConfirmations = errors.New("awaiting confirmations")
)

// ReceiptPoll controls how WaitMined polls for a receipt.
type ReceiptPoll struct {
	Interval    time.Duration
	MaxInterval time.Duration
	// Confirmations is how many blocks, counting the inclusion block, the
	// node head must show before the receipt is accepted.
	Confirmations uint64
}

// DefaultReceiptPoll polls quickly at first and settles at the retry ceiling.
func DefaultReceiptPoll() ReceiptPoll {
	return ReceiptPoll{
		Interval:      DefaultRetryDelay,
		MaxInterval:   DefaultMaxDelay,
		Confirmations: 1,
	}
}

// WaitMined polls until txHash is mined with the requested confirmations or
// ctx ends. Transport failures keep polling; RPC error objects stop it.
func WaitMined(ctx context.Context, client RPCClient, txHash string, poll ReceiptPoll) (*types.Receipt, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = poll.Interval
	policy.MaxInterval = poll.MaxInterval
	policy.Multiplier = DefaultBackoffMult
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0

	var receipt *types.Receipt
	attempt := func() error {
		r, err := client.TransactionReceipt(ctx, txHash)
		if err != nil {
			var rpcErr *RPCError
			if errors.As(err, &rpcErr) {
				return backoff.Permanent(err)
			}
			return err
		}
		if poll.Confirmations > 0 && r.BlockNumber != nil {
			head, err := client.BlockNumber(ctx)
			if err != nil {
				return err
			}
			if head+1 < r.BlockNumber.Uint64()+poll.Confirmations {
				return errAwaitingConfirmations
			}
		}
		receipt = r
		return nil
	}

	if err := backoff.Retry(attempt, backoff.WithContext(policy, ctx)); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("wait for %s: %w", txHash, ctx.Err())
		}
		return nil, fmt.Errorf("wait for %s: %w", txHash, err)
	}
	return receipt, nil
}
