package upgrade

import (
	"context"
	"fmt"
	"io"

	"github.com/compose-network/boxctl/configs"
	"github.com/compose-network/boxctl/internal/artifacts"
	"github.com/compose-network/boxctl/internal/contract"
	"github.com/compose-network/boxctl/internal/logger"
	"github.com/compose-network/boxctl/internal/proxy"
	"github.com/ethereum/go-ethereum/common"
)

const (
	DefaultNetwork = configs.NetworkMumbai
	DefaultProxy   = "0xb6a24f3de5ACd15C18Db932C425AcB1D224A8e56"
	DefaultFactory = artifacts.ContractBoxV2
)

type (
	// Upgrader points a proxy at a new implementation.
	Upgrader interface {
		Upgrade(ctx context.Context, proxyAddress common.Address, implementation artifacts.Artifact) (proxy.Result, error)
	}

	Options struct {
		Network configs.NetworkName
		Proxy   string
		Factory string
	}
)

// UpgradeProxy upgrades the proxy to factory and reports the proxy address,
// which is unchanged by the upgrade.
func UpgradeProxy(ctx context.Context, upgrader Upgrader, proxyAddress common.Address, factory artifacts.Artifact, out io.Writer) (proxy.Result, error) {
	result, err := upgrader.Upgrade(ctx, proxyAddress, factory)
	if err != nil {
		return proxy.Result{}, err
	}

	if _, err := fmt.Fprintf(out, "Your upgraded proxy is done! %s\n", result.Proxy.Hex()); err != nil {
		return proxy.Result{}, fmt.Errorf("failed to print result: %w", err)
	}

	return result, nil
}

func Execute(ctx context.Context, cfg configs.Config, opts Options, out io.Writer) error {
	network, err := cfg.Network(opts.Network)
	if err != nil {
		return err
	}

	proxyAddress, err := contract.ParseAddress(opts.Proxy)
	if err != nil {
		return err
	}

	factory, err := artifacts.NewStore(cfg.ArtifactsDir).Load(opts.Factory)
	if err != nil {
		return err
	}

	logger.Named("upgrade").
		With("network", network.Name).
		With("proxy", proxyAddress.Hex()).
		With("factory", factory.ContractName).
		Info("upgrading proxy")

	client, err := contract.Dial(ctx, network, cfg.Credentials)
	if err != nil {
		return err
	}
	defer client.Close()

	manager := proxy.NewManager(proxy.FromClient(client), proxy.NewManifestStore(cfg.DeploymentsDir), network.SaveDeployments)

	_, err = UpgradeProxy(ctx, manager, proxyAddress, factory, out)
	return err
}
