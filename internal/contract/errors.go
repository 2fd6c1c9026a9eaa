package contract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/compose-network/boxctl/configs"
	"github.com/compose-network/boxctl/internal/wallet"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// Sentinel errors
var (
	ErrConnection         = errors.New("rpc endpoint unreachable")
	ErrInvalidAddress     = errors.New("invalid address")
	ErrRemoteExecution    = errors.New("remote execution failed")
	ErrAuthorization      = errors.New("signer is not authorized")
	ErrUnknownMethod      = errors.New("method is not part of the contract interface")
	ErrMissingCredentials = wallet.ErrMissingCredentials
)

// selector of OpenZeppelin 5 OwnableUnauthorizedAccount(address)
var ownableUnauthorizedSelector = hexutil.MustDecode("0x118cdaa7")

var unauthorizedReasons = []string{
	"caller is not the owner",
	"caller is not the admin",
	"admin cannot fallback to proxy target",
}

type (
	ConnectionError struct {
		URL string
		Err error
	}

	InvalidAddressError struct {
		Address string
		Reason  string
	}

	// RemoteError is a failure reported by the node for a call or transaction.
	RemoteError struct {
		Method       string
		Reason       string
		Unauthorized bool
		Err          error
	}

	AuthorizationError struct {
		Action   string
		Signer   common.Address
		Required common.Address
	}
)

// Error masks the endpoint, which often embeds an API key, including where the
// transport error repeats it.
func (e *ConnectionError) Error() string {
	redacted := configs.RedactURL(e.URL)
	cause := fmt.Sprint(e.Err)
	if e.URL != "" {
		cause = strings.ReplaceAll(cause, e.URL, redacted)
	}
	return fmt.Sprintf("failed to reach rpc endpoint %s: %s", redacted, cause)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address '%s': %s", e.Address, e.Reason)
}

func (e *InvalidAddressError) Is(target error) bool { return target == ErrInvalidAddress }

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("remote call %s failed", e.Method)
	if e.Reason != "" {
		msg += ": reverted with reason '" + e.Reason + "'"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrRemoteExecution:
		return true
	case ErrAuthorization:
		return e.Unauthorized
	}
	return false
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("signer %s is not authorized to %s (requires %s)", e.Signer.Hex(), e.Action, e.Required.Hex())
}

func (e *AuthorizationError) Is(target error) bool { return target == ErrAuthorization }

// ParseAddress validates a hex address. Mixed-case input must carry a valid
// EIP-55 checksum.
func ParseAddress(value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if !common.IsHexAddress(value) {
		return common.Address{}, &InvalidAddressError{Address: value, Reason: "not a 20-byte hex address"}
	}

	address := common.HexToAddress(value)
	body := value
	if len(body) >= 2 && body[0] == '0' && (body[1] == 'x' || body[1] == 'X') {
		body = body[2:]
	}
	mixedCase := strings.ToLower(body) != body && strings.ToUpper(body) != body
	if mixedCase && address.Hex()[2:] != body {
		return common.Address{}, &InvalidAddressError{Address: value, Reason: "bad EIP-55 checksum"}
	}

	return address, nil
}

// classifyRemote wraps a node error and decodes revert data when present.
func classifyRemote(method string, err error) error {
	if err == nil {
		return nil
	}

	remote := &RemoteError{Method: method, Err: err}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if raw, ok := dataErr.ErrorData().(string); ok {
			if data, decodeErr := hexutil.Decode(raw); decodeErr == nil {
				if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
					remote.Reason = reason
				}
				if len(data) >= 4 && bytes.Equal(data[:4], ownableUnauthorizedSelector) {
					remote.Unauthorized = true
				}
			}
		}
	}

	text := strings.ToLower(remote.Reason + " " + err.Error())
	for _, reason := range unauthorizedReasons {
		if strings.Contains(text, reason) {
			remote.Unauthorized = true
			break
		}
	}

	return remote
}
