package configs

const (
	EnvPrivateKey      = "PRIVATE_KEY"
	EnvMnemonic        = "MNEMONIC"
	EnvEtherscanAPIKey = "ETHERSCAN_API_KEY"

	DefaultPrivateKey      = "your private key"
	DefaultMnemonic        = "your mnemonic"
	DefaultEtherscanAPIKey = "your-etherscan-api-key"
)

// Load resolves the catalog against env. It never fails: absent variables are
// replaced by placeholders, and an unusable credential only surfaces once a
// signature is requested.
func Load(catalog Catalog, env Environment) Config {
	cfg := Config{
		DefaultNetwork:  catalog.DefaultNetwork,
		Solidity:        catalog.Solidity,
		ArtifactsDir:    catalog.ArtifactsDir,
		DeploymentsDir:  catalog.DeploymentsDir,
		Networks:        make(map[NetworkName]Network, len(catalog.Networks)),
		NamedAccounts:   make(map[string]int, len(catalog.NamedAccounts)),
		Credentials: Credentials{
			PrivateKey: valueOr(env, DefaultPrivateKey, EnvPrivateKey),
			Mnemonic:   valueOr(env, DefaultMnemonic, EnvMnemonic),
		},
		EtherscanAPIKey: valueOr(env, DefaultEtherscanAPIKey, EnvEtherscanAPIKey),
	}

	for name, entry := range catalog.Networks {
		cfg.Networks[name] = Network{
			Name:            name,
			URL:             valueOr(env, entry.URL, entry.URLEnv...),
			ChainID:         entry.ChainID,
			Accounts:        entry.Accounts,
			SaveDeployments: entry.SaveDeployments,
		}
	}

	for name, index := range catalog.NamedAccounts {
		cfg.NamedAccounts[name] = index
	}

	return cfg
}

func valueOr(env Environment, fallback string, keys ...string) string {
	if value, ok := env.Lookup(keys...); ok {
		return value
	}
	return fallback
}
