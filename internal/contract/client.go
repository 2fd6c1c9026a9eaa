package contract

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/compose-network/boxctl/configs"
	"github.com/compose-network/boxctl/internal/artifacts"
	"github.com/compose-network/boxctl/internal/logger"
	"github.com/compose-network/boxctl/internal/wallet"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client is a connection to one network plus the credentials used to sign
// on it. The signer is resolved on first use.
type Client struct {
	network configs.Network
	creds   configs.Credentials
	eth     *ethclient.Client
	chainID *big.Int
	logger  *slog.Logger

	signerOnce sync.Once
	signer     wallet.Signer
	signerErr  error
}

// Dial connects to the network endpoint and probes it for its chain ID.
func Dial(ctx context.Context, network configs.Network, creds configs.Credentials) (*Client, error) {
	log := logger.Named("contract_client").With("network", network.Name)

	log.With("url", configs.RedactURL(network.URL)).Debug("dialing the RPC endpoint")
	eth, err := ethclient.DialContext(ctx, network.URL)
	if err != nil {
		return nil, &ConnectionError{URL: network.URL, Err: err}
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, &ConnectionError{URL: network.URL, Err: err}
	}
	log.With("chain_id", chainID).Debug("chain ID was fetched")

	if network.ChainID != 0 && chainID.Cmp(big.NewInt(network.ChainID)) != 0 {
		log.
			With("expected", network.ChainID).
			With("actual", chainID).
			Warn("endpoint reports a different chain ID than configured")
	}

	return &Client{
		network: network,
		creds:   creds,
		eth:     eth,
		chainID: chainID,
		logger:  log,
	}, nil
}

func (c *Client) Close() {
	c.eth.Close()
}

func (c *Client) Network() configs.Network {
	return c.network
}

func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// Signer returns the network's first signer. Missing credentials are only
// reported here, never at dial time.
func (c *Client) Signer() (wallet.Signer, error) {
	c.signerOnce.Do(func() {
		c.signer, c.signerErr = wallet.SignerForNetwork(c.network, c.creds)
	})
	return c.signer, c.signerErr
}

// Bind returns a handle for the contract at address. The handle shares the
// client connection and does not close it.
func (c *Client) Bind(address common.Address, parsed abi.ABI) *Handle {
	return &Handle{
		address:  address,
		abi:      parsed,
		contract: bind.NewBoundContract(address, parsed, c.eth, c.eth, c.eth),
		client:   c,
		close:    func() {},
	}
}

// Deploy sends the artifact's creation bytecode and waits for it to be mined.
func (c *Client) Deploy(ctx context.Context, artifact artifacts.Artifact, constructorArgs ...any) (common.Address, *types.Receipt, error) {
	if len(artifact.Bytecode) == 0 {
		return common.Address{}, nil, fmt.Errorf("artifact %s has no bytecode", artifact.ContractName)
	}

	auth, err := c.transactOpts(ctx)
	if err != nil {
		return common.Address{}, nil, err
	}

	address, tx, _, err := bind.DeployContract(auth, artifact.ABI, artifact.Bytecode, c.eth, constructorArgs...)
	if err != nil {
		return common.Address{}, nil, classifyRemote("deploy "+artifact.ContractName, err)
	}

	c.logger.
		With("contract", artifact.ContractName).
		With("address", address).
		With("tx_hash", tx.Hash().Hex()).
		Info("contract deployment transaction sent")

	receipt, err := c.waitMined(ctx, "deploy "+artifact.ContractName, tx)
	if err != nil {
		return common.Address{}, nil, err
	}

	return address, receipt, nil
}

func (c *Client) CodeAt(ctx context.Context, address common.Address) ([]byte, error) {
	code, err := c.eth.CodeAt(ctx, address, nil)
	if err != nil {
		return nil, classifyRemote("eth_getCode", err)
	}
	return code, nil
}

func (c *Client) StorageAt(ctx context.Context, address common.Address, slot common.Hash) ([]byte, error) {
	value, err := c.eth.StorageAt(ctx, address, slot, nil)
	if err != nil {
		return nil, classifyRemote("eth_getStorageAt", err)
	}
	return value, nil
}

func (c *Client) BalanceAt(ctx context.Context, address common.Address) (*big.Int, error) {
	balance, err := c.eth.BalanceAt(ctx, address, nil)
	if err != nil {
		return nil, classifyRemote("eth_getBalance", err)
	}
	return balance, nil
}

// Accounts returns the accounts managed by the node itself.
func (c *Client) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := c.eth.Client().CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, classifyRemote("eth_accounts", err)
	}
	return accounts, nil
}

func (c *Client) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	signer, err := c.Signer()
	if err != nil {
		return nil, err
	}

	auth, err := bind.NewKeyedTransactorWithChainID(signer.Key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	auth.Context = ctx

	return auth, nil
}

func (c *Client) waitMined(ctx context.Context, method string, tx *types.Transaction) (*types.Receipt, error) {
	c.logger.With("tx_hash", tx.Hash().Hex()).Debug("waiting for transaction to be mined")

	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for transaction %s: %w", tx.Hash().Hex(), err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, &RemoteError{
			Method: method,
			Err:    fmt.Errorf("transaction %s failed with status %d", tx.Hash().Hex(), receipt.Status),
		}
	}

	return receipt, nil
}
