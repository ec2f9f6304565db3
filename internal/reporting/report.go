package reporting

import (
	"time"

	"epic-nft-gallery/internal/domain"
)

// Report represents the gallery report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Contract    string
	Account     string

	// Summary of the latest snapshot
	Summary Summary

	// Token tables (token id order)
	Owned  []domain.TokenRecord
	Tokens []domain.TokenRecord

	// Skipped token ids with reasons
	Skipped []domain.SkippedToken

	// Recent passes, newest first
	Passes []*domain.PassRecord
}

// Summary contains the headline numbers.
type Summary struct {
	Generation    uint64
	Trigger       domain.Trigger
	Supply        uint64
	TotalTokens   int
	OwnedTokens   int
	SkippedTokens int
	Progress      domain.MintProgress
	CompletedAt   int64 // Unix ms
	Fingerprint   string
}
