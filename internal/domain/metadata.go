package domain

// TokenMetadata is the JSON payload embedded in a token URI.
// Fields that are missing or not strings decode as empty.
type TokenMetadata struct {
	Name        string
	Description string
	Image       string // SVG data URI or external URL
}

// TokenRecord is one minted token as shown in the gallery.
// Records are never updated in place; every pass produces fresh ones.
type TokenRecord struct {
	TokenID     uint64 `json:"tokenId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Owner       string `json:"owner"` // EIP-55 hex address as returned by ownerOf
}
