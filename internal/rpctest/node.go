// Package rpctest runs an in-process JSON-RPC node answering the handful of
// eth_ methods the contract client uses.
package rpctest

import (
	"errors"
	"math/big"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var revertSelector = hexutil.MustDecode("0x08c379a0")

type (
	Node struct {
		chainID int64
		server  *httptest.Server

		mu       sync.Mutex
		calls    map[string]callResult
		code     map[common.Address][]byte
		storage  map[common.Address]map[common.Hash]common.Hash
		balances map[common.Address]*big.Int
		accounts []common.Address
	}

	callResult struct {
		output []byte
		err    error
	}

	// RevertError mimics the error a node returns for a reverted call.
	RevertError struct {
		Reason string
		Data   []byte
	}

	ethAPI struct {
		node *Node
	}
)

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}
	return "execution reverted: " + e.Reason
}

func (e *RevertError) ErrorCode() int { return 3 }

func (e *RevertError) ErrorData() any { return hexutil.Encode(e.Data) }

// NewNode starts a node reporting chainID. It is stopped when the test ends.
func NewNode(t testing.TB, chainID int64) *Node {
	t.Helper()

	n := &Node{
		chainID:  chainID,
		calls:    make(map[string]callResult),
		code:     make(map[common.Address][]byte),
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
		balances: make(map[common.Address]*big.Int),
	}

	server := rpc.NewServer()
	if err := server.RegisterName("eth", &ethAPI{node: n}); err != nil {
		t.Fatalf("failed to register eth API: %v", err)
	}

	n.server = httptest.NewServer(server)
	t.Cleanup(func() {
		n.server.Close()
		server.Stop()
	})

	return n
}

func (n *Node) URL() string {
	return n.server.URL
}

// Stop shuts the HTTP endpoint down, making the node unreachable.
func (n *Node) Stop() {
	n.server.Close()
}

// HandleCall answers eth_call for method on to with outputs packed by the
// method's ABI.
func (n *Node) HandleCall(to common.Address, method abi.Method, outputs ...any) error {
	packed, err := method.Outputs.Pack(outputs...)
	if err != nil {
		return err
	}
	n.setCall(to, method.ID, callResult{output: packed})
	return nil
}

// RevertCall makes eth_call for method on to revert with reason.
func (n *Node) RevertCall(to common.Address, method abi.Method, reason string) {
	n.setCall(to, method.ID, callResult{err: NewRevertError(reason)})
}

// FailCall makes eth_call for method on to fail with a plain error.
func (n *Node) FailCall(to common.Address, method abi.Method, message string) {
	n.setCall(to, method.ID, callResult{err: errors.New(message)})
}

func (n *Node) SetCode(address common.Address, code []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.code[address] = code
}

func (n *Node) SetStorage(address common.Address, slot, value common.Hash) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.storage[address] == nil {
		n.storage[address] = make(map[common.Hash]common.Hash)
	}
	n.storage[address][slot] = value
}

func (n *Node) SetBalance(address common.Address, wei *big.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.balances[address] = wei
}

func (n *Node) SetAccounts(accounts ...common.Address) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.accounts = accounts
}

// NewRevertError encodes reason as Error(string) revert data.
func NewRevertError(reason string) *RevertError {
	stringType, _ := abi.NewType("string", "", nil)
	packed, _ := abi.Arguments{{Type: stringType}}.Pack(reason)
	return &RevertError{Reason: reason, Data: append(append([]byte{}, revertSelector...), packed...)}
}

func (n *Node) setCall(to common.Address, selector []byte, result callResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls[callKey(to, selector)] = result
}

func callKey(to common.Address, selector []byte) string {
	return strings.ToLower(to.Hex()) + hexutil.Encode(selector)
}

func (api *ethAPI) ChainId() *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(api.node.chainID))
}

func (api *ethAPI) Call(args map[string]any, block string) (hexutil.Bytes, error) {
	to, _ := args["to"].(string)
	input, _ := args["input"].(string)
	if input == "" {
		input, _ = args["data"].(string)
	}

	data, err := hexutil.Decode(input)
	if err != nil || len(data) < 4 {
		return nil, errors.New("invalid call input")
	}

	api.node.mu.Lock()
	result, ok := api.node.calls[callKey(common.HexToAddress(to), data[:4])]
	api.node.mu.Unlock()
	if !ok {
		return nil, NewRevertError("")
	}

	return result.output, result.err
}

func (api *ethAPI) GetCode(address common.Address, block string) hexutil.Bytes {
	api.node.mu.Lock()
	defer api.node.mu.Unlock()
	return api.node.code[address]
}

func (api *ethAPI) GetStorageAt(address common.Address, slot common.Hash, block string) hexutil.Bytes {
	api.node.mu.Lock()
	defer api.node.mu.Unlock()
	value := api.node.storage[address][slot]
	return value.Bytes()
}

func (api *ethAPI) GetBalance(address common.Address, block string) *hexutil.Big {
	api.node.mu.Lock()
	defer api.node.mu.Unlock()
	balance, ok := api.node.balances[address]
	if !ok {
		balance = new(big.Int)
	}
	return (*hexutil.Big)(balance)
}

func (api *ethAPI) Accounts() []common.Address {
	api.node.mu.Lock()
	defer api.node.mu.Unlock()
	return api.node.accounts
}
