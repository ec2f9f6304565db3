// Package tokenuri decodes self-contained token metadata URIs.
package tokenuri

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"epic-nft-gallery/internal/domain"
)

// DataURIPrefix is the only token URI form the gallery accepts.
const DataURIPrefix = "data:application/json;base64,"

var (
	// ErrNotDataURI is returned when a token URI is empty or not a base64 JSON data URI.
	ErrNotDataURI = errors.New("token uri is not a base64 json data uri")

	// ErrDecode is returned when the payload is not valid base64, not valid
	// JSON, or JSON null.
	ErrDecode = errors.New("decode token metadata")
)

// IsDataURI reports whether uri carries embedded base64 JSON metadata.
func IsDataURI(uri string) bool {
	return strings.HasPrefix(uri, DataURIPrefix)
}

// Decode extracts the metadata embedded in a token URI.
// The payload is the text after the first comma. Valid JSON that is not an
// object yields empty metadata, so the record falls back to defaults.
func Decode(uri string) (*domain.TokenMetadata, error) {
	if !IsDataURI(uri) {
		return nil, ErrNotDataURI
	}

	_, payload, _ := strings.Cut(uri, ",")
	raw, err := decodeBase64(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrDecode, err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: metadata is null", ErrDecode)
	}

	fields, ok := doc.(map[string]any)
	if !ok {
		return &domain.TokenMetadata{}, nil
	}
	return &domain.TokenMetadata{
		Name:        stringField(fields, "name"),
		Description: stringField(fields, "description"),
		Image:       stringField(fields, "image"),
	}, nil
}

// Record builds a gallery record, applying display defaults for empty fields.
func Record(tokenID uint64, meta *domain.TokenMetadata, owner string) domain.TokenRecord {
	r := domain.TokenRecord{
		TokenID: tokenID,
		Owner:   owner,
	}
	if meta != nil {
		r.Name = meta.Name
		r.Description = meta.Description
		r.Image = meta.Image
	}
	if r.Name == "" {
		r.Name = DefaultName(tokenID)
	}
	return r
}

// DefaultName is the display name for tokens whose metadata has none.
func DefaultName(tokenID uint64) string {
	return "NFT #" + strconv.FormatUint(tokenID, 10)
}

// decodeBase64 accepts padded and unpadded standard base64.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

// stringField returns the named field if it is a JSON string, "" otherwise.
func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}
