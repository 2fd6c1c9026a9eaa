package wallet

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/compose-network/boxctl/configs"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/tyler-smith/go-bip39"
)

// DefaultAccountCount is how many accounts a mnemonic network exposes.
const DefaultAccountCount = 20

// DerivationPath returns m/44'/60'/0'/0/index.
func DerivationPath(index uint32) accounts.DerivationPath {
	path := make(accounts.DerivationPath, len(accounts.DefaultBaseDerivationPath))
	copy(path, accounts.DefaultBaseDerivationPath)
	path[len(path)-1] = index
	return path
}

// SignerFromMnemonic derives the signer at the given account index.
func SignerFromMnemonic(mnemonic string, index uint32) (Signer, error) {
	signers, err := SignersFromMnemonic(mnemonic, index, 1)
	if err != nil {
		return Signer{}, err
	}
	return signers[0], nil
}

// SignersFromMnemonic derives count consecutive signers starting at start.
func SignersFromMnemonic(mnemonic string, start, count uint32) ([]Signer, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if isPlaceholder(mnemonic, configs.DefaultMnemonic) {
		return nil, fmt.Errorf("%w: set %s", ErrMissingCredentials, configs.EnvMnemonic)
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("%w: invalid mnemonic: %v", ErrInvalidCredentials, err)
	}

	// chain params only matter for serialization, not for derivation
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}

	signers := make([]Signer, 0, count)
	for i := start; i < start+count; i++ {
		signer, err := deriveSigner(master, DerivationPath(i))
		if err != nil {
			return nil, fmt.Errorf("derive account %d: %w", i, err)
		}
		signers = append(signers, signer)
	}

	return signers, nil
}

func deriveSigner(master *hdkeychain.ExtendedKey, path accounts.DerivationPath) (Signer, error) {
	key := master
	for _, index := range path {
		child, err := key.Derive(index)
		if err != nil {
			return Signer{}, fmt.Errorf("derive %s: %w", path, err)
		}
		key = child
	}

	privKey, err := key.ECPrivKey()
	if err != nil {
		return Signer{}, fmt.Errorf("get private key: %w", err)
	}

	return NewSigner(privKey.ToECDSA())
}
