package tokenuri

import (
	"encoding/base64"
	"encoding/json"

	"epic-nft-gallery/internal/domain"
)

type metadataJSON struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Encode builds the data URI a contract would return for meta.
func Encode(meta domain.TokenMetadata) string {
	data, _ := json.Marshal(metadataJSON{
		Name:        meta.Name,
		Description: meta.Description,
		Image:       meta.Image,
	})
	return EncodeRaw(data)
}

// EncodeRaw wraps an arbitrary payload in the token data URI prefix.
func EncodeRaw(payload []byte) string {
	return DataURIPrefix + base64.StdEncoding.EncodeToString(payload)
}
