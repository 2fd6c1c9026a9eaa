package upgrade

import (
	"bytes"
	"context"
	"testing"

	"github.com/compose-network/boxctl/configs"
	"github.com/compose-network/boxctl/internal/artifacts"
	"github.com/compose-network/boxctl/internal/contract"
	"github.com/compose-network/boxctl/internal/proxy"
	"github.com/compose-network/boxctl/internal/rpctest"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const devPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

type mockUpgrader struct {
	result proxy.Result
	err    error

	gotProxy          common.Address
	gotImplementation artifacts.Artifact
}

func (m *mockUpgrader) Upgrade(_ context.Context, proxyAddress common.Address, implementation artifacts.Artifact) (proxy.Result, error) {
	m.gotProxy = proxyAddress
	m.gotImplementation = implementation
	return m.result, m.err
}

func TestUpgradeProxy(t *testing.T) {
	proxyAddress := common.HexToAddress(DefaultProxy)
	factory := artifacts.Artifact{ContractName: artifacts.ContractBoxV2}

	t.Run("prints the proxy address", func(t *testing.T) {
		upgrader := &mockUpgrader{result: proxy.Result{Proxy: proxyAddress, Implementation: common.HexToAddress("0x02")}}
		var out bytes.Buffer

		result, err := UpgradeProxy(context.Background(), upgrader, proxyAddress, factory, &out)

		require.NoError(t, err)
		assert.Equal(t, proxyAddress, result.Proxy)
		assert.Equal(t, proxyAddress, upgrader.gotProxy)
		assert.Equal(t, artifacts.ContractBoxV2, upgrader.gotImplementation.ContractName)
		assert.Equal(t, "Your upgraded proxy is done! 0xb6a24f3de5ACd15C18Db932C425AcB1D224A8e56\n", out.String())
	})

	t.Run("unauthorized signer", func(t *testing.T) {
		upgrader := &mockUpgrader{err: &contract.AuthorizationError{
			Action:   "upgrade proxy",
			Signer:   common.HexToAddress("0x01"),
			Required: common.HexToAddress("0x02"),
		}}
		var out bytes.Buffer

		_, err := UpgradeProxy(context.Background(), upgrader, proxyAddress, factory, &out)

		assert.ErrorIs(t, err, contract.ErrAuthorization)
		assert.Empty(t, out.String())
	})
}

func testConfig(url, privateKey string) configs.Config {
	return configs.Config{
		ArtifactsDir: "../artifacts/testdata/artifacts",
		Networks: map[configs.NetworkName]configs.Network{
			configs.NetworkMumbai: {Name: configs.NetworkMumbai, URL: url, ChainID: 80001, Accounts: configs.AccountSourcePrivateKey, SaveDeployments: true},
		},
		Credentials: configs.Credentials{PrivateKey: privateKey},
	}
}

func TestExecute_Errors(t *testing.T) {
	node := rpctest.NewNode(t, 80001)
	defaults := Options{Network: DefaultNetwork, Proxy: DefaultProxy, Factory: DefaultFactory}

	tests := []struct {
		name       string
		privateKey string
		modify     func(*Options)
		wantErr    error
	}{
		{name: "placeholder key", privateKey: configs.DefaultPrivateKey, modify: func(*Options) {}, wantErr: contract.ErrMissingCredentials},
		{name: "no contract at proxy", privateKey: devPrivateKey, modify: func(*Options) {}, wantErr: proxy.ErrNotProxy},
		{name: "bad checksum", privateKey: devPrivateKey, modify: func(o *Options) { o.Proxy = "0xB6a24f3de5ACd15C18Db932C425AcB1D224A8e56" }, wantErr: contract.ErrInvalidAddress},
		{name: "unknown network", privateKey: devPrivateKey, modify: func(o *Options) { o.Network = "goerli" }, wantErr: configs.ErrUnknownNetwork},
		{name: "unknown factory", privateKey: devPrivateKey, modify: func(o *Options) { o.Factory = "BoxV3" }, wantErr: artifacts.ErrArtifactNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaults
			tt.modify(&opts)
			cfg := testConfig(node.URL(), tt.privateKey)
			cfg.DeploymentsDir = t.TempDir()
			var out bytes.Buffer

			err := Execute(context.Background(), cfg, opts, &out)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, out.String())
		})
	}
}

func TestNewCommand_Defaults(t *testing.T) {
	cfg := configs.Config{}
	cmd := NewCommand(&cfg)

	assert.Equal(t, "upgrade", cmd.Name())
	assert.Equal(t, string(configs.NetworkMumbai), cmd.Flags().Lookup("network").DefValue)
	assert.Equal(t, DefaultProxy, cmd.Flags().Lookup("proxy").DefValue)
	assert.Equal(t, artifacts.ContractBoxV2, cmd.Flags().Lookup("factory").DefValue)
}
