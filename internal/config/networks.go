package config

import (
	"sort"
	"strings"
)

// Built-in network names.
const (
	NetworkPushDonut = "pushDonut"
	NetworkLocalhost = "localhost"
)

// Network describes an EVM chain the gallery can read from.
type Network struct {
	Name        string   `yaml:"name"`
	DisplayName string   `yaml:"display_name"`
	ChainID     uint64   `yaml:"chain_id"`
	RPCURLs     []string `yaml:"rpc_urls"`
	WSURL       string   `yaml:"ws_url"`
	Explorer    string   `yaml:"explorer"`
	Currency    string   `yaml:"currency"`
}

var builtinNetworks = map[string]Network{
	NetworkPushDonut: {
		Name:        NetworkPushDonut,
		DisplayName: "Push Chain Donut Testnet",
		ChainID:     42101,
		RPCURLs: []string{
			"https://evm.rpc-testnet-donut-node1.push.org/",
			"https://evm.rpc-testnet-donut-node2.push.org/",
		},
		Explorer: "https://evm-explorer-testnet.push.org",
		Currency: "PC",
	},
	NetworkLocalhost: {
		Name:        NetworkLocalhost,
		DisplayName: "Localhost",
		ChainID:     31337,
		RPCURLs:     []string{"http://127.0.0.1:8545"},
		WSURL:       "ws://127.0.0.1:8545",
		Currency:    "ETH",
	},
}

// LookupNetwork returns a built-in network by case-insensitive name.
func LookupNetwork(name string) (Network, bool) {
	for key, n := range builtinNetworks {
		if strings.EqualFold(key, name) {
			return n, true
		}
	}
	return Network{}, false
}

// Networks returns the built-in networks sorted by chain id.
func Networks() []Network {
	out := make([]Network, 0, len(builtinNetworks))
	for _, n := range builtinNetworks {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChainID < out[j].ChainID })
	return out
}

// TxURL returns the explorer link for a transaction, or "" without an explorer.
func (n Network) TxURL(hash string) string {
	if n.Explorer == "" {
		return ""
	}
	return strings.TrimSuffix(n.Explorer, "/") + "/tx/" + hash
}
