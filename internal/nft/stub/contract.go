// Package stub provides an in-memory MyEpicNFT contract for tests.
package stub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"epic-nft-gallery/internal/evm"
	"epic-nft-gallery/internal/nft"
)

// ErrNonexistentToken mirrors the ERC-721 revert for unknown ids.
var ErrNonexistentToken = errors.New("ERC721: invalid token ID")

// Token is one minted token.
type Token struct {
	URI   string
	Owner string
}

// Contract is an in-memory nft.Reader and nft.Minter.
type Contract struct {
	mu sync.Mutex

	tokens []Token

	// MintURI builds the token URI for a newly minted id. Nil gives an empty URI.
	MintURI func(id uint64) string

	supplyErr error
	uriErr    map[uint64]error
	ownerErr  map[uint64]error
	mintErr   error
	revert    bool
	waitErr   error
	mined     map[string]nft.Receipt

	supplyCalls int
	uriCalls    int
	ownerCalls  int
	mintCalls   int
	txCounter   int
}

var (
	_ nft.Reader = (*Contract)(nil)
	_ nft.Minter = (*Contract)(nil)
)

// New creates a stub holding tokens.
func New(tokens ...Token) *Contract {
	return &Contract{
		tokens:   append([]Token(nil), tokens...),
		uriErr:   make(map[uint64]error),
		ownerErr: make(map[uint64]error),
		mined:    make(map[string]nft.Receipt),
	}
}

// FailSupply makes TotalMinted return err. Nil clears it.
func (c *Contract) FailSupply(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supplyErr = err
}

// FailURI makes TokenURI(id) return err.
func (c *Contract) FailURI(id uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uriErr[id] = err
}

// FailOwner makes OwnerOf(id) return err.
func (c *Contract) FailOwner(id uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ownerErr[id] = err
}

// FailMint makes MakeAnEpicNFT return err.
func (c *Contract) FailMint(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mintErr = err
}

// RevertMints makes later mints land in a failed receipt without minting.
func (c *Contract) RevertMints(revert bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revert = revert
}

// FailWait makes WaitMined return err. Nil clears it.
func (c *Contract) FailWait(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waitErr = err
}

// Add appends a token and returns its id.
func (c *Contract) Add(t Token) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = append(c.tokens, t)
	return uint64(len(c.tokens) - 1)
}

// TotalMinted implements nft.Reader.
func (c *Contract) TotalMinted(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supplyCalls++
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if c.supplyErr != nil {
		return 0, c.supplyErr
	}
	return uint64(len(c.tokens)), nil
}

// TokenURI implements nft.Reader.
func (c *Contract) TokenURI(ctx context.Context, id uint64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uriCalls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := c.uriErr[id]; err != nil {
		return "", err
	}
	if id >= uint64(len(c.tokens)) {
		return "", ErrNonexistentToken
	}
	return c.tokens[id].URI, nil
}

// OwnerOf implements nft.Reader.
func (c *Contract) OwnerOf(ctx context.Context, id uint64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ownerCalls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := c.ownerErr[id]; err != nil {
		return "", err
	}
	if id >= uint64(len(c.tokens)) {
		return "", ErrNonexistentToken
	}
	return c.tokens[id].Owner, nil
}

// MakeAnEpicNFT implements nft.Minter by appending a token owned by from.
func (c *Contract) MakeAnEpicNFT(ctx context.Context, from string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mintCalls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.mintErr != nil {
		return "", c.mintErr
	}
	c.txCounter++
	hash := fmt.Sprintf("0x%064x", c.txCounter)
	receipt := nft.Receipt{TxHash: hash, BlockNumber: uint64(c.txCounter), Success: !c.revert}
	c.mined[hash] = receipt
	if c.revert {
		return hash, nil
	}
	id := uint64(len(c.tokens))
	uri := ""
	if c.MintURI != nil {
		uri = c.MintURI(id)
	}
	c.tokens = append(c.tokens, Token{URI: uri, Owner: strings.ToLower(from)})
	return hash, nil
}

// WaitMined implements nft.Minter. Transactions are mined as soon as they are sent.
func (c *Contract) WaitMined(ctx context.Context, txHash string) (*nft.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.waitErr != nil {
		return nil, c.waitErr
	}
	r, ok := c.mined[txHash]
	if !ok {
		return nil, fmt.Errorf("wait for %s: %w", txHash, evm.ErrReceiptNotFound)
	}
	return &r, nil
}

// Calls reports how many times each method was invoked.
func (c *Contract) Calls() (supply, uri, owner, mint int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.supplyCalls, c.uriCalls, c.ownerCalls, c.mintCalls
}

// ReadCalls is the number of TokenURI plus OwnerOf invocations.
func (c *Contract) ReadCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uriCalls + c.ownerCalls
}
