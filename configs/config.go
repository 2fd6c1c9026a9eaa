package configs

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/url"
	"slices"
	"strings"
)

var ErrUnknownNetwork = errors.New("unknown network")

type (
	NetworkName   string
	AccountSource string

	// Catalog is the static description of the networks the tool can talk to.
	// It carries no secrets; those come from the environment.
	Catalog struct {
		DefaultNetwork NetworkName                  `mapstructure:"default-network" yaml:"default-network"`
		Solidity       string                       `mapstructure:"solidity" yaml:"solidity"`
		ArtifactsDir   string                       `mapstructure:"artifacts-dir" yaml:"artifacts-dir"`
		DeploymentsDir string                       `mapstructure:"deployments-dir" yaml:"deployments-dir"`
		Networks       map[NetworkName]NetworkEntry `mapstructure:"networks" yaml:"networks"`
		NamedAccounts  map[string]int               `mapstructure:"named-accounts" yaml:"named-accounts"`
	}

	NetworkEntry struct {
		URL             string        `mapstructure:"url" yaml:"url"`
		URLEnv          []string      `mapstructure:"url-env" yaml:"url-env,omitempty"`
		ChainID         int64         `mapstructure:"chain-id" yaml:"chain-id,omitempty"`
		Accounts        AccountSource `mapstructure:"accounts" yaml:"accounts"`
		SaveDeployments bool          `mapstructure:"save-deployments" yaml:"save-deployments"`
	}

	// Config is the resolved configuration. It is built once at startup and
	// passed explicitly to every command.
	Config struct {
		DefaultNetwork  NetworkName             `yaml:"default-network"`
		Solidity        string                  `yaml:"solidity"`
		ArtifactsDir    string                  `yaml:"artifacts-dir"`
		DeploymentsDir  string                  `yaml:"deployments-dir"`
		Networks        map[NetworkName]Network `yaml:"networks"`
		NamedAccounts   map[string]int          `yaml:"named-accounts"`
		Credentials     Credentials             `yaml:"credentials"`
		EtherscanAPIKey string                  `yaml:"etherscan-api-key"`
	}

	Network struct {
		Name            NetworkName   `yaml:"name"`
		URL             string        `yaml:"url"`
		ChainID         int64         `yaml:"chain-id,omitempty"`
		Accounts        AccountSource `yaml:"accounts"`
		SaveDeployments bool          `yaml:"save-deployments"`
	}

	// Credentials hold signer secrets in memory only.
	Credentials struct {
		PrivateKey string `yaml:"private-key"`
		Mnemonic   string `yaml:"mnemonic"`
	}
)

const (
	AccountSourcePrivateKey AccountSource = "private-key"
	AccountSourceMnemonic   AccountSource = "mnemonic"
	AccountSourceRemote     AccountSource = "remote"

	NetworkHardhat NetworkName = "hardhat"
	NetworkLocal   NetworkName = "local"
	NetworkMumbai  NetworkName = "mumbai"
	NetworkMainnet NetworkName = "mainnet"
	NetworkKovan   NetworkName = "kovan"
)

// Network returns the named network, falling back to the default network
// when name is empty.
func (c Config) Network(name NetworkName) (Network, error) {
	if name == "" {
		name = c.DefaultNetwork
	}
	network, ok := c.Networks[name]
	if !ok {
		return Network{}, fmt.Errorf("%w: '%s' (known: %v)", ErrUnknownNetwork, name, c.NetworkNames())
	}
	return network, nil
}

func (c Config) NetworkNames() []NetworkName {
	return slices.Sorted(maps.Keys(c.Networks))
}

// Redacted returns a copy of the config that is safe to print.
func (c Config) Redacted() Config {
	redacted := c
	redacted.Credentials = Credentials{
		PrivateKey: redact(c.Credentials.PrivateKey),
		Mnemonic:   redact(c.Credentials.Mnemonic),
	}
	redacted.EtherscanAPIKey = redact(c.EtherscanAPIKey)

	redacted.Networks = make(map[NetworkName]Network, len(c.Networks))
	for name, network := range c.Networks {
		network.URL = RedactURL(network.URL)
		redacted.Networks[name] = network
	}
	return redacted
}

// RedactURL masks the parts of an RPC endpoint that providers use for API
// keys: the last path segment, the query and the password. Scheme, host and
// the leading path are kept so endpoints can still be told apart.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return redact(raw)
	}

	path := strings.TrimSuffix(u.EscapedPath(), "/")
	hasQuery := u.RawQuery != ""
	u.Path, u.RawPath, u.RawQuery, u.Fragment = "", "", "", ""

	masked := u.Redacted()
	if path != "" {
		masked += path[:strings.LastIndex(path, "/")+1] + "<redacted>"
	}
	if hasQuery {
		masked += "?<redacted>"
	}
	return masked
}

func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("private_key", redact(c.PrivateKey)),
		slog.String("mnemonic", redact(c.Mnemonic)),
	)
}

func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("default_network", string(c.DefaultNetwork)),
		slog.Any("networks", c.NetworkNames()),
		slog.String("artifacts_dir", c.ArtifactsDir),
		slog.String("deployments_dir", c.DeploymentsDir),
		slog.Any("credentials", c.Credentials),
	)
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "<redacted>"
}
