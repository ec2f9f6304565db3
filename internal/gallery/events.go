package gallery

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"epic-nft-gallery/internal/domain"
	"epic-nft-gallery/internal/evm"
	"epic-nft-gallery/internal/nft"
	"epic-nft-gallery/internal/observability"
)

// WatchTransfers subscribes to the contract's Transfer logs and feeds them to w.
// A mint (transfer from the zero address) reports the new supply; any other
// transfer changes ownership and requests a pass. Returns when ctx is done or
// the subscription channel closes.
func (w *Watcher) WatchTransfers(ctx context.Context, ws evm.WSClient, contract string) error {
	logs, err := ws.SubscribeLogs(ctx, evm.LogsFilter{
		Addresses: []string{contract},
		Topics:    [][]string{{nft.TransferTopic().Hex()}},
	})
	if err != nil {
		return fmt.Errorf("subscribe transfers: %w", err)
	}

	log := w.log.WithField("contract", contract)
	log.Info("watching transfer events")

	for {
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-logs:
			if !ok {
				return nil
			}
			observability.RecordLogReceived()
			if l.Removed {
				w.Refresh(domain.TriggerEvent)
				continue
			}

			from, _, tokenID, err := nft.DecodeTransfer(l.Topics)
			if err != nil {
				log.WithError(err).Debug("ignoring undecodable log")
				continue
			}

			if from == (common.Address{}).Hex() {
				w.mu.Lock()
				current, known := w.supply, w.supplyKnown
				w.mu.Unlock()
				if !known || tokenID+1 > current {
					w.NotifySupply(tokenID + 1)
					continue
				}
			}
			w.Refresh(domain.TriggerEvent)
		}
	}
}
