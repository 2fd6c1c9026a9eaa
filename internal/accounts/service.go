package accounts

import (
	"context"
	"fmt"
	"io"
	"maps"
	"math/big"
	"slices"

	"github.com/compose-network/boxctl/configs"
	"github.com/compose-network/boxctl/internal/contract"
	"github.com/compose-network/boxctl/internal/logger"
	"github.com/compose-network/boxctl/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
)

type (
	// Node lists the accounts a node manages itself.
	Node interface {
		Accounts(ctx context.Context) ([]common.Address, error)
	}

	Balancer interface {
		BalanceAt(ctx context.Context, address common.Address) (*big.Int, error)
	}

	// Account is one listed address. Balance is nil unless balances were requested.
	Account struct {
		Address common.Address
		Balance *big.Int
	}

	Options struct {
		Network  configs.NetworkName
		Count    uint32
		Balances bool
	}
)

// Resolve returns the accounts of network. node is only queried for remote
// networks and may be nil otherwise.
func Resolve(ctx context.Context, network configs.Network, creds configs.Credentials, count uint32, node Node) ([]common.Address, error) {
	switch network.Accounts {
	case configs.AccountSourcePrivateKey:
		signer, err := wallet.SignerFromPrivateKey(creds.PrivateKey)
		if err != nil {
			return nil, err
		}
		return []common.Address{signer.Address}, nil

	case configs.AccountSourceMnemonic:
		signers, err := wallet.SignersFromMnemonic(creds.Mnemonic, 0, count)
		if err != nil {
			return nil, err
		}
		addresses := make([]common.Address, 0, len(signers))
		for _, signer := range signers {
			addresses = append(addresses, signer.Address)
		}
		return addresses, nil

	case configs.AccountSourceRemote:
		if node == nil {
			return nil, fmt.Errorf("network %s uses node accounts but no node is connected", network.Name)
		}
		return node.Accounts(ctx)

	default:
		return nil, fmt.Errorf("network %s has unsupported account source '%s'", network.Name, network.Accounts)
	}
}

// WithBalances looks up the balance of every address.
func WithBalances(ctx context.Context, balancer Balancer, addresses []common.Address) ([]Account, error) {
	accounts := make([]Account, 0, len(addresses))
	for _, address := range addresses {
		balance, err := balancer.BalanceAt(ctx, address)
		if err != nil {
			return nil, fmt.Errorf("failed to get balance of %s: %w", address.Hex(), err)
		}
		accounts = append(accounts, Account{Address: address, Balance: balance})
	}
	return accounts, nil
}

// FormatBalance renders wei as ether.
func FormatBalance(wei *big.Int) string {
	eth := new(big.Float).Quo(
		new(big.Float).SetInt(wei),
		new(big.Float).SetInt(big.NewInt(1e18)),
	)

	return fmt.Sprintf("%.4f ETH (%s wei)", eth, wei.String())
}

// Print writes one account per line, then every named account that maps to
// one of them, sorted by name.
func Print(out io.Writer, accounts []Account, named map[string]int) error {
	for _, account := range accounts {
		line := account.Address.Hex()
		if account.Balance != nil {
			line += " " + FormatBalance(account.Balance)
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}

	log := logger.Named("accounts")
	for _, name := range slices.Sorted(maps.Keys(named)) {
		index := named[name]
		if index < 0 || index >= len(accounts) {
			log.With("name", name).With("index", index).Warn("named account is out of range")
			continue
		}
		if _, err := fmt.Fprintf(out, "%s: %s\n", name, accounts[index].Address.Hex()); err != nil {
			return err
		}
	}

	return nil
}

func Execute(ctx context.Context, cfg configs.Config, opts Options, out io.Writer) error {
	network, err := cfg.Network(opts.Network)
	if err != nil {
		return err
	}

	var client *contract.Client
	if network.Accounts == configs.AccountSourceRemote || opts.Balances {
		client, err = contract.Dial(ctx, network, cfg.Credentials)
		if err != nil {
			return err
		}
		defer client.Close()
	}

	var node Node
	if client != nil {
		node = client
	}

	addresses, err := Resolve(ctx, network, cfg.Credentials, opts.Count, node)
	if err != nil {
		return fmt.Errorf("failed to list accounts of %s: %w", network.Name, err)
	}

	accounts := make([]Account, 0, len(addresses))
	if opts.Balances {
		accounts, err = WithBalances(ctx, client, addresses)
		if err != nil {
			return err
		}
	} else {
		for _, address := range addresses {
			accounts = append(accounts, Account{Address: address})
		}
	}

	return Print(out, accounts, cfg.NamedAccounts)
}
