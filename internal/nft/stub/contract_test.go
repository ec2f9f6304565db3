package stub

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epic-nft-gallery/internal/evm"
)

func TestContract_ReadsAndFailures(t *testing.T) {
	ctx := context.Background()
	c := New(Token{URI: "a", Owner: "0x1"}, Token{URI: "b", Owner: "0x2"})

	n, err := c.TotalMinted(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	boom := errors.New("boom")
	c.FailURI(1, boom)
	_, err = c.TokenURI(ctx, 1)
	assert.ErrorIs(t, err, boom)

	_, err = c.OwnerOf(ctx, 5)
	assert.ErrorIs(t, err, ErrNonexistentToken)

	supply, uri, owner, mint := c.Calls()
	assert.Equal(t, []int{1, 1, 1, 0}, []int{supply, uri, owner, mint})
}

func TestContract_Mint(t *testing.T) {
	ctx := context.Background()
	c := New()
	c.MintURI = func(id uint64) string { return "uri" }

	hash, err := c.MakeAnEpicNFT(ctx, "0xABC")
	require.NoError(t, err)
	assert.Len(t, hash, 66)

	owner, err := c.OwnerOf(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", owner)

	c.FailMint(errors.New("user rejected"))
	_, err = c.MakeAnEpicNFT(ctx, "0xABC")
	assert.EqualError(t, err, "user rejected")
}

func TestContract_WaitMined(t *testing.T) {
	ctx := context.Background()
	c := New()

	hash, err := c.MakeAnEpicNFT(ctx, "0xabc")
	require.NoError(t, err)
	r, err := c.WaitMined(ctx, hash)
	require.NoError(t, err)
	assert.True(t, r.Success)
	assert.Equal(t, uint64(1), r.BlockNumber)

	c.RevertMints(true)
	hash, err = c.MakeAnEpicNFT(ctx, "0xabc")
	require.NoError(t, err)
	r, err = c.WaitMined(ctx, hash)
	require.NoError(t, err)
	assert.False(t, r.Success)

	n, err := c.TotalMinted(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n, "reverted mint must not add a token")

	_, err = c.WaitMined(ctx, "0xunknown")
	assert.ErrorIs(t, err, evm.ErrReceiptNotFound)
}
