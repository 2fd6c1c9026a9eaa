package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/compose-network/boxctl/configs"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrMissingCredentials = errors.New("signer credentials are not configured")
	ErrInvalidCredentials = errors.New("signer credentials are invalid")
)

// Signer is a key able to authorize transactions.
type Signer struct {
	Key     *ecdsa.PrivateKey
	Address common.Address
}

// NewSigner builds a Signer from an ECDSA key.
func NewSigner(key *ecdsa.PrivateKey) (Signer, error) {
	publicKeyECDSA, ok := key.Public().(*ecdsa.PublicKey)
	if !ok {
		return Signer{}, fmt.Errorf("failed to cast public key to ECDSA")
	}
	return Signer{Key: key, Address: crypto.PubkeyToAddress(*publicKeyECDSA)}, nil
}

// SignerFromPrivateKey parses a hex private key, with or without 0x prefix.
func SignerFromPrivateKey(privateKeyHex string) (Signer, error) {
	privateKeyHex = strings.TrimSpace(privateKeyHex)
	if isPlaceholder(privateKeyHex, configs.DefaultPrivateKey) {
		return Signer{}, fmt.Errorf("%w: set %s", ErrMissingCredentials, configs.EnvPrivateKey)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return Signer{}, fmt.Errorf("%w: failed to parse private key: %v", ErrInvalidCredentials, err)
	}

	return NewSigner(privateKey)
}

// SignerForNetwork returns the first signer of the network's account source.
// Remote networks sign locally too: the private key is preferred, then the
// mnemonic.
func SignerForNetwork(network configs.Network, creds configs.Credentials) (Signer, error) {
	switch network.Accounts {
	case configs.AccountSourcePrivateKey:
		return SignerFromPrivateKey(creds.PrivateKey)
	case configs.AccountSourceMnemonic:
		return SignerFromMnemonic(creds.Mnemonic, 0)
	default:
		signer, err := SignerFromPrivateKey(creds.PrivateKey)
		if errors.Is(err, ErrMissingCredentials) {
			return SignerFromMnemonic(creds.Mnemonic, 0)
		}
		return signer, err
	}
}

func isPlaceholder(value, placeholder string) bool {
	return value == "" || value == placeholder
}
