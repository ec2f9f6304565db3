package nft

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epic-nft-gallery/internal/evm"
)

const contractAddr = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

// fakeRPC answers eth_call by method selector with ABI-packed outputs.
type fakeRPC struct {
	outputs map[string][]interface{}
	callErr error
	calls   []evm.CallMsg
	sent    []evm.TxArgs
	txHash  string
	sendErr error
	receipt *types.Receipt
	head    uint64
}

func (f *fakeRPC) Call(ctx context.Context, msg evm.CallMsg) ([]byte, error) {
	f.calls = append(f.calls, msg)
	if f.callErr != nil {
		return nil, f.callErr
	}
	for name, values := range f.outputs {
		m := parsedABI.Methods[name]
		if bytes.HasPrefix(msg.Data, m.ID) {
			return m.Outputs.Pack(values...)
		}
	}
	return nil, nil
}

func (f *fakeRPC) ChainID(ctx context.Context) (uint64, error)     { return 31337, nil }
func (f *fakeRPC) BlockNumber(ctx context.Context) (uint64, error) { return f.head, nil }

func (f *fakeRPC) SendTransaction(ctx context.Context, tx evm.TxArgs) (string, error) {
	f.sent = append(f.sent, tx)
	return f.txHash, f.sendErr
}

func (f *fakeRPC) TransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	if f.receipt == nil {
		return nil, evm.ErrReceiptNotFound
	}
	return f.receipt, nil
}

func TestNewContract_InvalidAddress(t *testing.T) {
	_, err := NewContract(&fakeRPC{}, "not-an-address")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestContract_TotalMinted(t *testing.T) {
	rpc := &fakeRPC{outputs: map[string][]interface{}{
		"getTotalNFTsMinted": {big.NewInt(7)},
	}}
	c, err := NewContract(rpc, contractAddr)
	require.NoError(t, err)

	n, err := c.TotalMinted(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(7), n)

	require.Len(t, rpc.calls, 1)
	assert.Equal(t, contractAddr, rpc.calls[0].To)
	assert.Equal(t, parsedABI.Methods["getTotalNFTsMinted"].ID, rpc.calls[0].Data)
}

func TestContract_TokenURI(t *testing.T) {
	uri := "data:application/json;base64,eyJuYW1lIjoiQSJ9"
	rpc := &fakeRPC{outputs: map[string][]interface{}{
		"tokenURI": {uri},
	}}
	c, err := NewContract(rpc, contractAddr)
	require.NoError(t, err)

	got, err := c.TokenURI(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, uri, got)

	// selector c87b56dd followed by the 32-byte id
	data := rpc.calls[0].Data
	assert.Equal(t, []byte{0xc8, 0x7b, 0x56, 0xdd}, data[:4])
	assert.Equal(t, int64(3), new(big.Int).SetBytes(data[4:]).Int64())
}

func TestContract_OwnerOf_Checksummed(t *testing.T) {
	owner := common.HexToAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	rpc := &fakeRPC{outputs: map[string][]interface{}{
		"ownerOf": {owner},
	}}
	c, err := NewContract(rpc, contractAddr)
	require.NoError(t, err)

	got, err := c.OwnerOf(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", got)
	assert.Equal(t, []byte{0x63, 0x52, 0x21, 0x1e}, rpc.calls[0].Data[:4])
}

func TestContract_EmptyResult(t *testing.T) {
	c, err := NewContract(&fakeRPC{}, contractAddr)
	require.NoError(t, err)

	_, err = c.TotalMinted(context.Background())
	assert.ErrorContains(t, err, "empty result")
}

func TestContract_CallErrorWrapped(t *testing.T) {
	revert := &evm.RPCError{Code: 3, Message: "execution reverted: ERC721: invalid token ID"}
	c, err := NewContract(&fakeRPC{callErr: revert}, contractAddr)
	require.NoError(t, err)

	_, err = c.OwnerOf(context.Background(), 99)
	var rpcErr *evm.RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, 3, rpcErr.Code)
}

func TestContract_MakeAnEpicNFT(t *testing.T) {
	rpc := &fakeRPC{txHash: "0xdead"}
	c, err := NewContract(rpc, contractAddr, WithMintGas(300000))
	require.NoError(t, err)

	hash, err := c.MakeAnEpicNFT(context.Background(), "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	require.NoError(t, err)
	assert.Equal(t, "0xdead", hash)

	require.Len(t, rpc.sent, 1)
	tx := rpc.sent[0]
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", tx.From)
	assert.Equal(t, contractAddr, tx.To)
	assert.Equal(t, parsedABI.Methods["makeAnEpicNFT"].ID, tx.Data)
	assert.Equal(t, uint64(300000), tx.Gas)
}

func TestContract_MakeAnEpicNFT_InvalidFrom(t *testing.T) {
	rpc := &fakeRPC{}
	c, err := NewContract(rpc, contractAddr)
	require.NoError(t, err)

	_, err = c.MakeAnEpicNFT(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.Empty(t, rpc.sent)
}

func TestContract_WaitMined(t *testing.T) {
	poll := evm.ReceiptPoll{Interval: time.Millisecond, MaxInterval: time.Millisecond, Confirmations: 1}

	rpc := &fakeRPC{
		receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(9)},
		head:    10,
	}
	c, err := NewContract(rpc, contractAddr, WithReceiptPoll(poll))
	require.NoError(t, err)

	r, err := c.WaitMined(context.Background(), "0xdead")
	require.NoError(t, err)
	assert.Equal(t, &Receipt{TxHash: "0xdead", BlockNumber: 9, Success: true}, r)

	rpc.receipt = &types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(10)}
	r, err = c.WaitMined(context.Background(), "0xbeef")
	require.NoError(t, err)
	assert.False(t, r.Success)
}

func TestDecodeTransfer(t *testing.T) {
	to := common.HexToAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	topics := []string{
		TransferTopic().Hex(),
		common.Hash{}.Hex(),
		common.BytesToHash(to.Bytes()).Hex(),
		common.BigToHash(big.NewInt(12)).Hex(),
	}

	from, gotTo, id, err := DecodeTransfer(topics)
	require.NoError(t, err)
	assert.Equal(t, common.Address{}.Hex(), from)
	assert.Equal(t, to.Hex(), gotTo)
	assert.Equal(t, uint64(12), id)

	_, _, _, err = DecodeTransfer(topics[:2])
	assert.Error(t, err)
}

func TestTransferTopic(t *testing.T) {
	assert.Equal(t,
		"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
		TransferTopic().Hex())
}
