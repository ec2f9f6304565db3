package domain

import "math"

// DefaultMaxSupply is the collection cap enforced by the contract.
const DefaultMaxSupply = 50

// MintProgress summarizes how much of the collection has been minted.
type MintProgress struct {
	Minted        uint64  `json:"minted"`
	MaxSupply     uint64  `json:"maxSupply"`
	Remaining     uint64  `json:"remaining"`
	PercentMinted float64 `json:"percentMinted"` // one decimal place
	SoldOut       bool    `json:"soldOut"`
}

// NewMintProgress computes progress for minted out of maxSupply.
func NewMintProgress(minted, maxSupply uint64) MintProgress {
	p := MintProgress{Minted: minted, MaxSupply: maxSupply}
	if minted < maxSupply {
		p.Remaining = maxSupply - minted
	}
	if maxSupply > 0 {
		pct := float64(minted) / float64(maxSupply) * 100
		p.PercentMinted = math.Round(pct*10) / 10
	}
	p.SoldOut = maxSupply > 0 && minted >= maxSupply
	return p
}

// MintResult is returned once a mint transaction was mined successfully.
type MintResult struct {
	Account     string `json:"account"`
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
}
