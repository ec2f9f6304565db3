// Package mint submits makeAnEpicNFT transactions on behalf of the connected account.
package mint

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"epic-nft-gallery/internal/domain"
	"epic-nft-gallery/internal/logging"
	"epic-nft-gallery/internal/nft"
	"epic-nft-gallery/internal/notify"
	"epic-nft-gallery/internal/observability"
)

// User-visible messages.
const (
	MsgConnectWallet = "Please connect your wallet first!"
	MsgMinted        = "NFT minted successfully!"
	MsgMintFailed    = "Failed to mint NFT"
	MsgAwaitingMined = "Waiting for transaction to complete."
)

// DefaultReceiptTimeout bounds how long Mint waits for the transaction to be mined.
const DefaultReceiptTimeout = 2 * time.Minute

var (
	// ErrNoAccount is returned when no wallet is connected.
	ErrNoAccount = errors.New("no account connected")

	// ErrSoldOut is returned when supply has reached the collection cap.
	ErrSoldOut = errors.New("collection sold out")

	// ErrMintInProgress is returned while another mint is being submitted.
	ErrMintInProgress = errors.New("mint already in progress")

	// ErrReverted is returned when the mint transaction was mined with a failed status.
	ErrReverted = errors.New("mint transaction reverted")
)

// Contract is the contract surface the service needs.
type Contract interface {
	nft.Reader
	nft.Minter
}

// Refresher is told to rebuild the gallery after a successful mint.
type Refresher interface {
	Refresh(trigger domain.Trigger)
}

// Service mints through the contract, one transaction at a time.
type Service struct {
	contract  Contract
	notifier  notify.Notifier
	refresher Refresher
	maxSupply uint64
	timeout   time.Duration
	log       *logrus.Entry

	minting atomic.Bool
}

// Option configures a Service.
type Option func(*Service)

// WithMaxSupply overrides the collection cap.
func WithMaxSupply(n uint64) Option {
	return func(s *Service) {
		s.maxSupply = n
	}
}

// WithRefresher sets the gallery refresher.
func WithRefresher(r Refresher) Option {
	return func(s *Service) {
		s.refresher = r
	}
}

// WithReceiptTimeout bounds the wait for the mint receipt. Non-positive values keep the default.
func WithReceiptTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewService creates a mint service.
func NewService(contract Contract, notifier notify.Notifier, opts ...Option) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	s := &Service{
		contract:  contract,
		notifier:  notifier,
		maxSupply: domain.DefaultMaxSupply,
		timeout:   DefaultReceiptTimeout,
		log:       logging.Module("mint"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mint submits makeAnEpicNFT from account and waits for it to be mined.
// The gallery is refreshed only after a successful receipt. Failures are not retried.
func (s *Service) Mint(ctx context.Context, account string) (*domain.MintResult, error) {
	if account == "" {
		s.notifier.Error(MsgConnectWallet)
		observability.RecordMint("rejected")
		return nil, ErrNoAccount
	}
	if !s.minting.CompareAndSwap(false, true) {
		return nil, ErrMintInProgress
	}
	defer s.minting.Store(false)

	progress, err := s.Progress(ctx)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	if progress.SoldOut {
		s.notifier.Error(MsgMintFailed + ": " + ErrSoldOut.Error())
		observability.RecordMint("rejected")
		return nil, ErrSoldOut
	}

	log := s.log.WithField("account", account)
	log.Info("submitting mint")

	txHash, err := s.contract.MakeAnEpicNFT(ctx, account)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	log = log.WithField("tx", txHash)
	log.Info("mint submitted")
	s.notifier.Info(MsgAwaitingMined)

	waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	receipt, err := s.contract.WaitMined(waitCtx, txHash)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	if !receipt.Success {
		err := fmt.Errorf("%w: %s", ErrReverted, txHash)
		s.fail(err)
		return nil, err
	}

	log.WithField("block", receipt.BlockNumber).Info("mint mined")
	observability.RecordMint("success")
	s.notifier.Success(MsgMinted)
	if s.refresher != nil {
		s.refresher.Refresh(domain.TriggerManual)
	}
	return &domain.MintResult{Account: account, TxHash: txHash, BlockNumber: receipt.BlockNumber}, nil
}

func (s *Service) fail(err error) {
	s.log.WithError(err).Warn("mint failed")
	observability.RecordMint("failed")
	msg := err.Error()
	if msg == "" {
		msg = MsgMintFailed
	}
	s.notifier.Error(msg)
}

// Progress reads the minted count against the cap.
func (s *Service) Progress(ctx context.Context) (domain.MintProgress, error) {
	minted, err := s.contract.TotalMinted(ctx)
	if err != nil {
		return domain.MintProgress{}, fmt.Errorf("read total minted: %w", err)
	}
	return domain.NewMintProgress(minted, s.maxSupply), nil
}

// InProgress reports whether a mint is being submitted.
func (s *Service) InProgress() bool {
	return s.minting.Load()
}
