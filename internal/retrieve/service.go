package retrieve

import (
	"context"
	"fmt"
	"io"
	"math/big"

	"github.com/compose-network/boxctl/configs"
	"github.com/compose-network/boxctl/internal/artifacts"
	"github.com/compose-network/boxctl/internal/contract"
	"github.com/compose-network/boxctl/internal/logger"
)

const (
	DefaultNetwork  = configs.NetworkMumbai
	DefaultAddress  = "0xb6a24f3de5acd15c18db932c425acb1d224a8e56"
	DefaultContract = artifacts.ContractBox
)

type (
	// Caller performs read-only contract calls.
	Caller interface {
		Call(ctx context.Context, method string, args ...any) ([]any, error)
	}

	Options struct {
		Network  configs.NetworkName
		Address  string
		Contract string
	}
)

// RetrieveValue reads the stored value and prints it to out.
func RetrieveValue(ctx context.Context, caller Caller, out io.Writer) (*big.Int, error) {
	result, err := caller.Call(ctx, artifacts.MethodRetrieve)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve value: %w", err)
	}
	if len(result) != 1 {
		return nil, fmt.Errorf("retrieve returned %d values, expected 1", len(result))
	}

	value, ok := result[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("retrieve returned %T, expected uint256", result[0])
	}

	if _, err := fmt.Fprintln(out, value.String()); err != nil {
		return nil, fmt.Errorf("failed to print value: %w", err)
	}

	return value, nil
}

// Execute connects to the configured network and retrieves the value of the
// contract at opts.Address.
func Execute(ctx context.Context, cfg configs.Config, opts Options, out io.Writer) error {
	network, err := cfg.Network(opts.Network)
	if err != nil {
		return err
	}

	artifact, err := artifacts.NewStore(cfg.ArtifactsDir).Load(opts.Contract)
	if err != nil {
		return err
	}

	log := logger.Named("retrieve")
	log.
		With("network", network.Name).
		With("address", opts.Address).
		With("contract", artifact.ContractName).
		Info("retrieving stored value")

	handle, err := contract.NewHandle(ctx, network, opts.Address, artifact, cfg.Credentials)
	if err != nil {
		return err
	}
	defer handle.Close()

	value, err := RetrieveValue(ctx, handle, out)
	if err != nil {
		return err
	}

	log.With("value", value.String()).Debug("value retrieved")

	return nil
}
