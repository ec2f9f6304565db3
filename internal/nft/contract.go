package nft

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"epic-nft-gallery/internal/evm"
)

// ErrInvalidAddress is returned for contract or account strings that are not hex addresses.
var ErrInvalidAddress = errors.New("invalid address")

// Reader reads gallery state from the contract.
type Reader interface {
	TotalMinted(ctx context.Context) (uint64, error)
	TokenURI(ctx context.Context, id uint64) (string, error)
	OwnerOf(ctx context.Context, id uint64) (string, error)
}

// Minter submits mint transactions and waits for them to be mined.
type Minter interface {
	MakeAnEpicNFT(ctx context.Context, from string) (string, error)
	WaitMined(ctx context.Context, txHash string) (*Receipt, error)
}

// Receipt is the mined outcome of a transaction.
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	Success     bool
}

// Contract implements Reader and Minter over JSON-RPC.
type Contract struct {
	rpc         evm.RPCClient
	address     common.Address
	mintGas     uint64
	receiptPoll evm.ReceiptPoll
}

var (
	_ Reader = (*Contract)(nil)
	_ Minter = (*Contract)(nil)
)

// Option configures a Contract.
type Option func(*Contract)

// WithMintGas sets an explicit gas limit for mint transactions.
// Zero leaves estimation to the node.
func WithMintGas(gas uint64) Option {
	return func(c *Contract) {
		c.mintGas = gas
	}
}

// WithReceiptPoll sets how WaitMined polls for receipts.
func WithReceiptPoll(p evm.ReceiptPoll) Option {
	return func(c *Contract) {
		c.receiptPoll = p
	}
}

// NewContract binds the contract at address.
func NewContract(rpc evm.RPCClient, address string, opts ...Option) (*Contract, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	c := &Contract{
		rpc:         rpc,
		address:     common.HexToAddress(address),
		receiptPoll: evm.DefaultReceiptPoll(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Address returns the checksummed contract address.
func (c *Contract) Address() string {
	return c.address.Hex()
}

// TotalMinted calls getTotalNFTsMinted().
func (c *Contract) TotalMinted(ctx context.Context) (uint64, error) {
	out, err := c.read(ctx, "getTotalNFTsMinted")
	if err != nil {
		return 0, err
	}
	n, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("getTotalNFTsMinted: unexpected output type %T", out[0])
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("getTotalNFTsMinted: value %s overflows uint64", n)
	}
	return n.Uint64(), nil
}

// TokenURI calls tokenURI(id).
func (c *Contract) TokenURI(ctx context.Context, id uint64) (string, error) {
	out, err := c.read(ctx, "tokenURI", new(big.Int).SetUint64(id))
	if err != nil {
		return "", err
	}
	uri, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("tokenURI: unexpected output type %T", out[0])
	}
	return uri, nil
}

// OwnerOf calls ownerOf(id) and returns the EIP-55 owner address.
func (c *Contract) OwnerOf(ctx context.Context, id uint64) (string, error) {
	out, err := c.read(ctx, "ownerOf", new(big.Int).SetUint64(id))
	if err != nil {
		return "", err
	}
	owner, ok := out[0].(common.Address)
	if !ok {
		return "", fmt.Errorf("ownerOf: unexpected output type %T", out[0])
	}
	return owner.Hex(), nil
}

// MakeAnEpicNFT submits makeAnEpicNFT() from the given account and returns the tx hash.
// The node holds the account key and signs.
func (c *Contract) MakeAnEpicNFT(ctx context.Context, from string) (string, error) {
	if !common.IsHexAddress(from) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, from)
	}
	data, err := parsedABI.Pack("makeAnEpicNFT")
	if err != nil {
		return "", fmt.Errorf("pack makeAnEpicNFT: %w", err)
	}
	hash, err := c.rpc.SendTransaction(ctx, evm.TxArgs{
		From: common.HexToAddress(from).Hex(),
		To:   c.address.Hex(),
		Data: data,
		Gas:  c.mintGas,
	})
	if err != nil {
		return "", fmt.Errorf("makeAnEpicNFT: %w", err)
	}
	return hash, nil
}

// WaitMined blocks until txHash is mined. A reverted transaction is returned
// with Success false, not as an error.
func (c *Contract) WaitMined(ctx context.Context, txHash string) (*Receipt, error) {
	r, err := evm.WaitMined(ctx, c.rpc, txHash, c.receiptPoll)
	if err != nil {
		return nil, err
	}
	out := &Receipt{
		TxHash:  txHash,
		Success: r.Status == types.ReceiptStatusSuccessful,
	}
	if r.BlockNumber != nil {
		out.BlockNumber = r.BlockNumber.Uint64()
	}
	return out, nil
}

// read packs method(args), runs eth_call and unpacks a single output.
func (c *Contract) read(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsedABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	raw, err := c.rpc.Call(ctx, evm.CallMsg{To: c.address.Hex(), Data: data})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if len(raw) == 0 {
		// eth_call against an address without code returns 0x
		return nil, fmt.Errorf("%s: empty result (no contract at %s?)", method, c.address.Hex())
	}
	out, err := parsedABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%s: expected 1 output, got %d", method, len(out))
	}
	return out, nil
}

// DecodeTransfer extracts the token id from a Transfer log's indexed topics.
func DecodeTransfer(topics []string) (from, to string, tokenID uint64, err error) {
	if len(topics) != 4 {
		return "", "", 0, fmt.Errorf("transfer log: expected 4 topics, got %d", len(topics))
	}
	if common.HexToHash(topics[0]) != TransferTopic() {
		return "", "", 0, fmt.Errorf("transfer log: unexpected event id %s", topics[0])
	}
	id := common.HexToHash(topics[3]).Big()
	if !id.IsUint64() {
		return "", "", 0, fmt.Errorf("transfer log: token id %s overflows uint64", id)
	}
	from = common.BytesToAddress(common.HexToHash(topics[1]).Bytes()).Hex()
	to = common.BytesToAddress(common.HexToHash(topics[2]).Bytes()).Hex()
	return from, to, id.Uint64(), nil
}
