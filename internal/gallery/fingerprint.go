package gallery

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"epic-nft-gallery/internal/domain"
)

// Fingerprint computes a deterministic SHA256 over the records of a view.
// Each record contributes token_id|name|description|image|lower(owner), strings quoted.
// Returns hex-encoded hash (64 characters).
func Fingerprint(records []domain.TokenRecord) string {
	h := sha256.New()
	for _, r := range records {
		fmt.Fprintf(h, "%d|%q|%q|%q|%q\n",
			r.TokenID,
			r.Name,
			r.Description,
			r.Image,
			strings.ToLower(r.Owner),
		)
	}
	return hex.EncodeToString(h.Sum(nil))
}
