package artifacts

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var ErrInterfaceMismatch = errors.New("artifact does not match declared interface")

type (
	// Method is the statically declared shape of one contract method.
	Method struct {
		Name     string
		Inputs   []string
		Outputs  []string
		ReadOnly bool
	}

	// Interface is the set of methods a contract is expected to expose.
	Interface struct {
		Name    string
		Methods []Method
	}

	InterfaceMismatchError struct {
		Contract string
		Method   string
		Reason   string
	}
)

const (
	ContractBox   = "Box"
	ContractBoxV2 = "BoxV2"

	MethodRetrieve  = "retrieve"
	MethodStore     = "store"
	MethodIncrement = "increment"
)

var (
	BoxInterface = Interface{
		Name: ContractBox,
		Methods: []Method{
			{Name: MethodRetrieve, Outputs: []string{"uint256"}, ReadOnly: true},
			{Name: MethodStore, Inputs: []string{"uint256"}},
		},
	}

	BoxV2Interface = Interface{
		Name: ContractBoxV2,
		Methods: []Method{
			{Name: MethodRetrieve, Outputs: []string{"uint256"}, ReadOnly: true},
			{Name: MethodStore, Inputs: []string{"uint256"}},
			{Name: MethodIncrement},
		},
	}

	// Interfaces lists the contracts whose artifacts are checked on load.
	Interfaces = map[string]Interface{
		ContractBox:   BoxInterface,
		ContractBoxV2: BoxV2Interface,
	}
)

func (e *InterfaceMismatchError) Error() string {
	return fmt.Sprintf("contract %s, method %s: %s", e.Contract, e.Method, e.Reason)
}

func (e *InterfaceMismatchError) Is(target error) bool {
	return target == ErrInterfaceMismatch
}

// Check verifies that every declared method is present in parsed with the
// same argument types and mutability.
func (i Interface) Check(parsed abi.ABI) error {
	var errs []error
	for _, want := range i.Methods {
		got, ok := parsed.Methods[want.Name]
		if !ok {
			errs = append(errs, &InterfaceMismatchError{Contract: i.Name, Method: want.Name, Reason: "missing from ABI"})
			continue
		}

		if in := argumentTypes(got.Inputs); !slices.Equal(in, want.Inputs) {
			errs = append(errs, &InterfaceMismatchError{
				Contract: i.Name,
				Method:   want.Name,
				Reason:   fmt.Sprintf("inputs (%s), expected (%s)", strings.Join(in, ","), strings.Join(want.Inputs, ",")),
			})
		}
		if out := argumentTypes(got.Outputs); !slices.Equal(out, want.Outputs) {
			errs = append(errs, &InterfaceMismatchError{
				Contract: i.Name,
				Method:   want.Name,
				Reason:   fmt.Sprintf("outputs (%s), expected (%s)", strings.Join(out, ","), strings.Join(want.Outputs, ",")),
			})
		}
		if got.IsConstant() != want.ReadOnly {
			errs = append(errs, &InterfaceMismatchError{
				Contract: i.Name,
				Method:   want.Name,
				Reason:   fmt.Sprintf("read-only is %t, expected %t", got.IsConstant(), want.ReadOnly),
			})
		}
	}

	return errors.Join(errs...)
}

func argumentTypes(args abi.Arguments) []string {
	types := make([]string, 0, len(args))
	for _, arg := range args {
		types = append(types, arg.Type.String())
	}
	return types
}
