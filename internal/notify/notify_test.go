package notify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epic-nft-gallery/internal/domain"
)

func TestHub_ListAfter(t *testing.T) {
	h := NewHub(10)
	h.Success("NFT minted successfully!")
	h.Error("Failed to load NFTs")
	h.Info("refreshing")

	all := h.List(0)
	require.Len(t, all, 3)
	assert.Equal(t, domain.LevelSuccess, all[0].Level)
	assert.Equal(t, domain.LevelError, all[1].Level)
	assert.Equal(t, "refreshing", all[2].Message)
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{all[0].ID, all[1].ID, all[2].ID})

	after := h.List(2)
	require.Len(t, after, 1)
	assert.Equal(t, uint64(3), after[0].ID)

	assert.Empty(t, h.List(3))
}

func TestHub_Capacity(t *testing.T) {
	h := NewHub(3)
	for i := 0; i < 5; i++ {
		h.Info(fmt.Sprintf("msg %d", i))
	}

	got := h.List(0)
	require.Len(t, got, 3)
	assert.Equal(t, uint64(3), got[0].ID)
	assert.Equal(t, "msg 4", got[2].Message)
}

func TestNewHub_DefaultCapacity(t *testing.T) {
	h := NewHub(0)
	assert.Equal(t, DefaultCapacity, h.capacity)
}
