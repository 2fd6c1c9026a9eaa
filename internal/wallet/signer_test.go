package wallet

import (
	"testing"

	"github.com/compose-network/boxctl/configs"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	devMnemonic   = "test test test test test test test test test test test junk"
	devPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
)

var (
	devAccount0 = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	devAccount1 = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

func TestSignerFromPrivateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{name: "with prefix", key: devPrivateKey},
		{name: "without prefix", key: devPrivateKey[2:]},
		{name: "empty", key: "", wantErr: ErrMissingCredentials},
		{name: "placeholder", key: configs.DefaultPrivateKey, wantErr: ErrMissingCredentials},
		{name: "malformed", key: "0xzz", wantErr: ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer, err := SignerFromPrivateKey(tt.key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, devAccount0, signer.Address)
		})
	}
}

func TestSignersFromMnemonic(t *testing.T) {
	signers, err := SignersFromMnemonic(devMnemonic, 0, 2)
	require.NoError(t, err)
	require.Len(t, signers, 2)

	assert.Equal(t, devAccount0, signers[0].Address)
	assert.Equal(t, devAccount1, signers[1].Address)
}

func TestSignerFromMnemonic_Errors(t *testing.T) {
	_, err := SignerFromMnemonic(configs.DefaultMnemonic, 0)
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = SignerFromMnemonic("not a valid bip39 phrase", 0)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDerivationPath(t *testing.T) {
	assert.Equal(t, "m/44'/60'/0'/0/7", DerivationPath(7).String())
	assert.Equal(t, "m/44'/60'/0'/0/0", DerivationPath(0).String(), "base path must not be mutated")
}

func TestSignerForNetwork(t *testing.T) {
	creds := configs.Credentials{PrivateKey: configs.DefaultPrivateKey, Mnemonic: devMnemonic}

	tests := []struct {
		name     string
		source   configs.AccountSource
		creds    configs.Credentials
		expected common.Address
		wantErr  error
	}{
		{
			name:    "private key network with placeholder key",
			source:  configs.AccountSourcePrivateKey,
			creds:   creds,
			wantErr: ErrMissingCredentials,
		},
		{
			name:     "mnemonic network",
			source:   configs.AccountSourceMnemonic,
			creds:    creds,
			expected: devAccount0,
		},
		{
			name:     "remote network falls back to mnemonic",
			source:   configs.AccountSourceRemote,
			creds:    creds,
			expected: devAccount0,
		},
		{
			name:     "remote network prefers private key",
			source:   configs.AccountSourceRemote,
			creds:    configs.Credentials{PrivateKey: devPrivateKey},
			expected: devAccount0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer, err := SignerForNetwork(configs.Network{Accounts: tt.source}, tt.creds)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, signer.Address)
		})
	}
}
