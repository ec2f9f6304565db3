// Package nft binds the MyEpicNFT contract to the EVM JSON-RPC transport.
package nft

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

//go:embed myepicnft.abi.json
var abiJSON string

var parsedABI abi.ABI

func init() {
	var err error
	parsedABI, err = abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(fmt.Sprintf("nft: parse embedded ABI: %v", err))
	}
}

// ABI returns the parsed contract ABI.
func ABI() abi.ABI {
	return parsedABI
}

// TransferTopic returns the Transfer(address,address,uint256) event id.
func TransferTopic() common.Hash {
	return parsedABI.Events["Transfer"].ID
}
