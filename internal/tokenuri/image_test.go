package tokenuri

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeImage_Base64SVG(t *testing.T) {
	ct, data, err := DecodeImage("data:image/svg+xml;base64,PHN2Zz48L3N2Zz4=")
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", ct)
	assert.Equal(t, "<svg></svg>", string(data))
}

func TestDecodeImage_PercentEncoded(t *testing.T) {
	ct, data, err := DecodeImage("data:image/svg+xml;utf8,%3Csvg%3E%3C%2Fsvg%3E")
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", ct)
	assert.Equal(t, "<svg></svg>", string(data))
}

func TestDecodeImage_External(t *testing.T) {
	_, _, err := DecodeImage("https://example.com/1.png")
	assert.ErrorIs(t, err, ErrExternalImage)

	_, _, err = DecodeImage("ipfs://Qm/1.png")
	assert.ErrorIs(t, err, ErrExternalImage)
}

func TestDecodeImage_Invalid(t *testing.T) {
	for _, img := range []string{"", "ftp://x", "data:image/png;base64", "data:image/png;base64,%%%"} {
		_, _, err := DecodeImage(img)
		assert.ErrorIs(t, err, ErrDecode, img)
	}
}

func TestDecodeImage_RejectsNonImageTypes(t *testing.T) {
	for _, img := range []string{
		"data:text/html,<script>alert(document.domain)</script>",
		"data:text/html;base64,PHNjcmlwdD48L3NjcmlwdD4=",
		"data:,plain",
		"data:application/javascript,alert(1)",
		"data:image/;base64,AA==",
	} {
		_, _, err := DecodeImage(img)
		assert.ErrorIs(t, err, ErrNotImage, img)
	}
}

func TestDecodeImage_NormalizesContentType(t *testing.T) {
	ct, _, err := DecodeImage("data:Image/PNG;BASE64,iVBORw==")
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
}

func TestExternalImageURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/1.png", "https://example.com/1.png"},
		{"ipfs://QmHash/1.png", IPFSGateway + "QmHash/1.png"},
		{"ipfs://ipfs/QmHash", IPFSGateway + "QmHash"},
	}
	for _, tt := range tests {
		got, err := ExternalImageURL(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	for _, bad := range []string{"javascript:alert(1)", "https:///nohost", "https://user:pw@example.com/x", "ipfs://", "data:image/png,x"} {
		_, err := ExternalImageURL(bad)
		assert.ErrorIs(t, err, ErrDecode, bad)
	}
}
