// Package config loads gallery settings from a YAML file, a .env file and
// environment variables. Command-line flags are applied last by the binaries.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"epic-nft-gallery/internal/domain"
)

// Environment variable names.
const (
	EnvNetwork       = "GALLERY_NETWORK"
	EnvContract      = "GALLERY_CONTRACT"
	EnvAccount       = "GALLERY_ACCOUNT"
	EnvRPCEndpoint   = "GALLERY_RPC_ENDPOINT"
	EnvWSEndpoint    = "GALLERY_WS_ENDPOINT"
	EnvPollInterval  = "GALLERY_POLL_INTERVAL"
	EnvConcurrency   = "GALLERY_CONCURRENCY"
	EnvListenAddr    = "GALLERY_LISTEN_ADDR"
	EnvPostgresDSN   = "POSTGRES_DSN"
	EnvClickHouseDSN = "CLICKHOUSE_DSN"
	EnvLogLevel      = "LOG_LEVEL"
)

var (
	// ErrUnknownNetwork is returned when the configured network is not defined.
	ErrUnknownNetwork = errors.New("unknown network")
	// ErrInvalidConfig wraps validation failures.
	ErrInvalidConfig = errors.New("invalid config")
)

// Config holds all runtime settings.
type Config struct {
	Network      string            `yaml:"network"`
	Networks     []Network         `yaml:"networks"` // merged over the built-in ones by name
	Contract     string            `yaml:"contract"`
	Account      string            `yaml:"account"`
	RPCEndpoint  string            `yaml:"rpc_endpoint"` // wins over network and overrides
	RPCOverrides map[uint64]string `yaml:"rpc_overrides"`
	WSEndpoint   string            `yaml:"ws_endpoint"`
	PollInterval time.Duration     `yaml:"poll_interval"`
	Concurrency  int               `yaml:"concurrency"`
	MaxSupply    uint64            `yaml:"max_supply"`
	MintGas      uint64            `yaml:"mint_gas"`
	ListenAddr   string            `yaml:"listen_addr"`
	Storage      Storage           `yaml:"storage"`
	Log          Log               `yaml:"log"`
}

// Storage selects the persistence backends.
type Storage struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
	UseMemory     bool   `yaml:"use_memory"`
}

// Log configures the logger.
type Log struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Network:      NetworkPushDonut,
		PollInterval: 30 * time.Second,
		Concurrency:  1,
		MaxSupply:    domain.DefaultMaxSupply,
		ListenAddr:   ":8080",
		Log:          Log{Level: "info"},
	}
}

// Load builds a Config from defaults, the YAML file at path (optional, may be
// empty) and the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str(EnvNetwork, &c.Network)
	str(EnvContract, &c.Contract)
	str(EnvAccount, &c.Account)
	str(EnvRPCEndpoint, &c.RPCEndpoint)
	str(EnvWSEndpoint, &c.WSEndpoint)
	str(EnvListenAddr, &c.ListenAddr)
	str(EnvPostgresDSN, &c.Storage.PostgresDSN)
	str(EnvClickHouseDSN, &c.Storage.ClickHouseDSN)
	str(EnvLogLevel, &c.Log.Level)

	if v, ok := lookup(EnvPollInterval); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvPollInterval, err)
		}
		c.PollInterval = d
	}
	if v, ok := lookup(EnvConcurrency); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvConcurrency, err)
		}
		c.Concurrency = n
	}
	return nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if _, err := c.ResolveNetwork(); err != nil {
		return err
	}
	if c.Contract != "" && !common.IsHexAddress(c.Contract) {
		return fmt.Errorf("%w: contract %q is not a hex address", ErrInvalidConfig, c.Contract)
	}
	if c.Account != "" && !common.IsHexAddress(c.Account) {
		return fmt.Errorf("%w: account %q is not a hex address", ErrInvalidConfig, c.Account)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll_interval must be positive", ErrInvalidConfig)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1", ErrInvalidConfig)
	}
	if c.MaxSupply == 0 {
		return fmt.Errorf("%w: max_supply must be positive", ErrInvalidConfig)
	}
	if !c.Storage.UseMemory && c.Storage.PostgresDSN == "" && c.Storage.ClickHouseDSN != "" {
		return fmt.Errorf("%w: clickhouse_dsn requires postgres_dsn", ErrInvalidConfig)
	}
	return nil
}

// supplyMargin is how far past max_supply a contract may report before a
// pass refuses to scan it.
const supplyMargin = 100

// SupplyLimit is the largest supply a reconciliation pass will scan.
func (c *Config) SupplyLimit() uint64 {
	return c.MaxSupply * supplyMargin
}

// ResolveNetwork returns the selected network, preferring user-defined
// entries over built-in ones with the same name.
func (c *Config) ResolveNetwork() (Network, error) {
	for _, n := range c.Networks {
		if strings.EqualFold(n.Name, c.Network) {
			return n, nil
		}
	}
	if n, ok := LookupNetwork(c.Network); ok {
		return n, nil
	}
	return Network{}, fmt.Errorf("%w: %q", ErrUnknownNetwork, c.Network)
}

// HTTPEndpoint returns the JSON-RPC URL to use: the explicit endpoint, then
// an override for the network's chain id, then the network's first RPC URL.
func (c *Config) HTTPEndpoint() (string, error) {
	if c.RPCEndpoint != "" {
		return c.RPCEndpoint, nil
	}
	n, err := c.ResolveNetwork()
	if err != nil {
		return "", err
	}
	if url, ok := c.RPCOverrides[n.ChainID]; ok && url != "" {
		return url, nil
	}
	if len(n.RPCURLs) == 0 {
		return "", fmt.Errorf("%w: network %s has no rpc urls", ErrInvalidConfig, n.Name)
	}
	return n.RPCURLs[0], nil
}

// LoadEnvFile copies KEY=VALUE lines from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read env file: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, set := os.LookupEnv(key); !set {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("set %s: %w", key, err)
			}
		}
	}
	return nil
}
