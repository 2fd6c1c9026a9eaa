package contract

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/compose-network/boxctl/configs"
	"github.com/compose-network/boxctl/internal/artifacts"
	"github.com/compose-network/boxctl/internal/rpctest"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	boxAddress    = "0xb6a24f3de5acd15c18db932c425acb1d224a8e56"
	devPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
)

func loadBox(t *testing.T) artifacts.Artifact {
	t.Helper()
	artifact, err := artifacts.NewStore("../artifacts/testdata/artifacts").Load(artifacts.ContractBox)
	require.NoError(t, err)
	return artifact
}

func networkFor(node *rpctest.Node) configs.Network {
	return configs.Network{Name: "test", URL: node.URL(), ChainID: 31337, Accounts: configs.AccountSourcePrivateKey}
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "lower case", input: "0xb6a24f3de5acd15c18db932c425acb1d224a8e56"},
		{name: "valid checksum", input: "0xb6a24f3de5ACd15C18Db932C425AcB1D224A8e56"},
		{name: "upper case", input: "0xB6A24F3DE5ACD15C18DB932C425ACB1D224A8E56"},
		{name: "no prefix", input: "b6a24f3de5acd15c18db932c425acb1d224a8e56"},
		{name: "bad checksum", input: "0xB6a24f3de5ACd15C18Db932C425AcB1D224A8e56", wantErr: true},
		{name: "too short", input: "0x1234", wantErr: true},
		{name: "not hex", input: "0xzz a24f3de5acd15c18db932c425acb1d224a8e5", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			address, err := ParseAddress(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAddress)
				var invalid *InvalidAddressError
				assert.True(t, errors.As(err, &invalid))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, common.HexToAddress(tt.input), address)
		})
	}
}

func TestNewHandle_InvalidAddressDoesNotDial(t *testing.T) {
	network := configs.Network{URL: "http://127.0.0.1:1"}

	_, err := NewHandle(context.Background(), network, "0x1234", loadBox(t), configs.Credentials{})

	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.NotErrorIs(t, err, ErrConnection)
}

func TestNewHandle_UnreachableEndpoint(t *testing.T) {
	node := rpctest.NewNode(t, 31337)
	network := networkFor(node)
	node.Stop()

	_, err := NewHandle(context.Background(), network, boxAddress, loadBox(t), configs.Credentials{})

	assert.ErrorIs(t, err, ErrConnection)
	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, network.URL, connErr.URL)
}

func TestDial_ErrorHidesEndpointKey(t *testing.T) {
	node := rpctest.NewNode(t, 31337)
	network := networkFor(node)
	network.URL += "/v2/k3y-abc123"
	node.Stop()

	_, err := Dial(context.Background(), network, configs.Credentials{})

	require.ErrorIs(t, err, ErrConnection)
	assert.NotContains(t, err.Error(), "k3y-abc123")
	assert.Contains(t, err.Error(), node.URL()+"/v2/<redacted>")
}

func TestHandle_Call(t *testing.T) {
	node := rpctest.NewNode(t, 31337)
	box := loadBox(t)
	address := common.HexToAddress(boxAddress)
	require.NoError(t, node.HandleCall(address, box.ABI.Methods[artifacts.MethodRetrieve], big.NewInt(42)))

	// placeholder credentials must not prevent read-only calls
	handle, err := NewHandle(context.Background(), networkFor(node), boxAddress, box, configs.Credentials{PrivateKey: configs.DefaultPrivateKey})
	require.NoError(t, err)
	defer handle.Close()

	assert.Equal(t, big.NewInt(31337), handle.Client().ChainID())

	out, err := handle.Call(context.Background(), artifacts.MethodRetrieve)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, big.NewInt(42), out[0])
}

func TestHandle_CallErrors(t *testing.T) {
	node := rpctest.NewNode(t, 31337)
	box := loadBox(t)
	address := common.HexToAddress(boxAddress)
	retrieve := box.ABI.Methods[artifacts.MethodRetrieve]

	handle, err := NewHandle(context.Background(), networkFor(node), boxAddress, box, configs.Credentials{})
	require.NoError(t, err)
	defer handle.Close()

	t.Run("unknown method", func(t *testing.T) {
		_, err := handle.Call(context.Background(), "increment")
		assert.ErrorIs(t, err, ErrUnknownMethod)
	})

	t.Run("revert with reason", func(t *testing.T) {
		node.RevertCall(address, retrieve, "box is empty")

		_, err := handle.Call(context.Background(), artifacts.MethodRetrieve)

		assert.ErrorIs(t, err, ErrRemoteExecution)
		assert.NotErrorIs(t, err, ErrAuthorization)
		var remote *RemoteError
		require.True(t, errors.As(err, &remote))
		assert.Equal(t, "box is empty", remote.Reason)
	})

	t.Run("unauthorized revert", func(t *testing.T) {
		node.RevertCall(address, retrieve, "Ownable: caller is not the owner")

		_, err := handle.Call(context.Background(), artifacts.MethodRetrieve)

		assert.ErrorIs(t, err, ErrRemoteExecution)
		assert.ErrorIs(t, err, ErrAuthorization)
	})

	t.Run("node error", func(t *testing.T) {
		node.FailCall(address, retrieve, "header not found")

		_, err := handle.Call(context.Background(), artifacts.MethodRetrieve)

		assert.ErrorIs(t, err, ErrRemoteExecution)
		assert.True(t, strings.Contains(err.Error(), "header not found"))
	})
}

func TestHandle_SendRequiresCredentials(t *testing.T) {
	node := rpctest.NewNode(t, 31337)

	handle, err := NewHandle(context.Background(), networkFor(node), boxAddress, loadBox(t), configs.Credentials{PrivateKey: configs.DefaultPrivateKey})
	require.NoError(t, err)
	defer handle.Close()

	_, err = handle.Send(context.Background(), artifacts.MethodStore, big.NewInt(1))

	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestClient_StorageCodeAndAccounts(t *testing.T) {
	node := rpctest.NewNode(t, 31337)
	address := common.HexToAddress(boxAddress)
	slot := common.HexToHash("0x01")
	value := common.HexToHash("0xabcdef")
	node.SetStorage(address, slot, value)
	node.SetCode(address, hexutil.MustDecode("0x6080"))
	node.SetAccounts(common.HexToAddress("0x01"), common.HexToAddress("0x02"))
	node.SetBalance(address, big.NewInt(1234))

	client, err := Dial(context.Background(), networkFor(node), configs.Credentials{PrivateKey: devPrivateKey})
	require.NoError(t, err)
	defer client.Close()

	stored, err := client.StorageAt(context.Background(), address, slot)
	require.NoError(t, err)
	assert.Equal(t, value.Bytes(), stored)

	code, err := client.CodeAt(context.Background(), address)
	require.NoError(t, err)
	assert.Equal(t, hexutil.MustDecode("0x6080"), code)

	balance, err := client.BalanceAt(context.Background(), address)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1234), balance)

	accounts, err := client.Accounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []common.Address{common.HexToAddress("0x01"), common.HexToAddress("0x02")}, accounts)

	signer, err := client.Signer()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), signer.Address)
}

func TestClient_DeployRequiresBytecode(t *testing.T) {
	node := rpctest.NewNode(t, 31337)
	client, err := Dial(context.Background(), networkFor(node), configs.Credentials{PrivateKey: devPrivateKey})
	require.NoError(t, err)
	defer client.Close()

	_, _, err = client.Deploy(context.Background(), artifacts.Artifact{ContractName: "Empty", ABI: abi.ABI{}})
	assert.ErrorContains(t, err, "has no bytecode")
}
