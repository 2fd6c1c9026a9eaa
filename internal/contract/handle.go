package contract

import (
	"context"
	"fmt"

	"github.com/compose-network/boxctl/configs"
	"github.com/compose-network/boxctl/internal/artifacts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Handle is a contract bound to an address, an ABI and the client's signer.
type Handle struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
	client   *Client
	close    func()
}

// NewHandle validates address, connects to the network and binds the
// artifact's ABI. Closing the handle closes its connection.
func NewHandle(ctx context.Context, network configs.Network, address string, artifact artifacts.Artifact, creds configs.Credentials) (*Handle, error) {
	parsed, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}

	client, err := Dial(ctx, network, creds)
	if err != nil {
		return nil, err
	}

	handle := client.Bind(parsed, artifact.ABI)
	handle.close = client.Close

	return handle, nil
}

func (h *Handle) Address() common.Address {
	return h.address
}

func (h *Handle) ABI() abi.ABI {
	return h.abi
}

func (h *Handle) Client() *Client {
	return h.client
}

func (h *Handle) Close() {
	h.close()
}

// Call invokes a read-only method and returns its decoded outputs.
func (h *Handle) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	if _, ok := h.abi.Methods[method]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}

	opts := &bind.CallOpts{Context: ctx}
	if signer, err := h.client.Signer(); err == nil {
		opts.From = signer.Address
	}

	var out []any
	if err := h.contract.Call(opts, &out, method, args...); err != nil {
		return nil, classifyRemote(method, err)
	}

	return out, nil
}

// Send signs a transaction invoking method and waits until it is mined.
func (h *Handle) Send(ctx context.Context, method string, args ...any) (*types.Receipt, error) {
	if _, ok := h.abi.Methods[method]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}

	auth, err := h.client.transactOpts(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := h.contract.Transact(auth, method, args...)
	if err != nil {
		return nil, classifyRemote(method, err)
	}

	h.client.logger.
		With("contract", h.address).
		With("method", method).
		With("tx_hash", tx.Hash().Hex()).
		Info("transaction sent")

	return h.client.waitMined(ctx, method, tx)
}
