package tokenuri

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// IPFSGateway resolves ipfs:// image links for browsers.
const IPFSGateway = "https://ipfs.io/ipfs/"

var (
	// ErrExternalImage is returned for images that live behind a URL rather than inline.
	ErrExternalImage = errors.New("image is an external url")

	// ErrNotImage is returned when an inline data URI declares a non-image media type.
	ErrNotImage = errors.New("data uri is not an image")
)

// DecodeImage returns the content type and bytes of an inline image data URI.
// Both ";base64," and percent-encoded payloads are supported. Only image/*
// media types are accepted.
func DecodeImage(image string) (string, []byte, error) {
	if image == "" {
		return "", nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	if isExternal(image) {
		return "", nil, ErrExternalImage
	}
	if !strings.HasPrefix(image, "data:") {
		return "", nil, fmt.Errorf("%w: unsupported image scheme", ErrDecode)
	}

	header, payload, ok := strings.Cut(strings.TrimPrefix(image, "data:"), ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: image data uri has no payload", ErrDecode)
	}

	params := strings.Split(header, ";")
	contentType := strings.ToLower(strings.TrimSpace(params[0]))
	if !strings.HasPrefix(contentType, "image/") || len(contentType) == len("image/") {
		return "", nil, fmt.Errorf("%w: %q", ErrNotImage, params[0])
	}

	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			data, err := decodeBase64(payload)
			if err != nil {
				return "", nil, fmt.Errorf("%w: image base64: %v", ErrDecode, err)
			}
			return contentType, data, nil
		}
	}

	text, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: image payload: %v", ErrDecode, err)
	}
	return contentType, []byte(text), nil
}

// ExternalImageURL returns a browser-safe URL for an external image: http and
// https links with a host, and ipfs:// links rewritten onto IPFSGateway.
func ExternalImageURL(image string) (string, error) {
	u, err := url.Parse(image)
	if err != nil {
		return "", fmt.Errorf("%w: image url: %v", ErrDecode, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" || u.User != nil {
			return "", fmt.Errorf("%w: image url %q", ErrDecode, image)
		}
		return u.String(), nil
	case "ipfs":
		path := strings.TrimPrefix(u.Host+u.Path, "ipfs/")
		if path == "" {
			return "", fmt.Errorf("%w: empty ipfs path", ErrDecode)
		}
		return IPFSGateway + path, nil
	}
	return "", fmt.Errorf("%w: unsupported image scheme %q", ErrDecode, u.Scheme)
}

func isExternal(image string) bool {
	lower := strings.ToLower(image)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "ipfs://")
}
