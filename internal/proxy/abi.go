package proxy

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	proxyAdminABIJSON = `[
		{"type":"function","name":"owner","inputs":[],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"},
		{"type":"function","name":"UPGRADE_INTERFACE_VERSION","inputs":[],"outputs":[{"name":"","type":"string"}],"stateMutability":"view"},
		{"type":"function","name":"upgrade","inputs":[{"name":"proxy","type":"address"},{"name":"implementation","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
		{"type":"function","name":"upgradeAndCall","inputs":[{"name":"proxy","type":"address"},{"name":"implementation","type":"address"},{"name":"data","type":"bytes"}],"outputs":[],"stateMutability":"payable"}
	]`

	// upgrade entry points exposed by the proxy itself: UUPS implementations
	// and transparent proxies called by an EOA admin
	upgradeableABIJSON = `[
		{"type":"function","name":"UPGRADE_INTERFACE_VERSION","inputs":[],"outputs":[{"name":"","type":"string"}],"stateMutability":"view"},
		{"type":"function","name":"upgradeTo","inputs":[{"name":"newImplementation","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
		{"type":"function","name":"upgradeToAndCall","inputs":[{"name":"newImplementation","type":"address"},{"name":"data","type":"bytes"}],"outputs":[],"stateMutability":"payable"}
	]`

	methodOwner                   = "owner"
	methodUpgradeInterfaceVersion = "UPGRADE_INTERFACE_VERSION"
	methodUpgrade                 = "upgrade"
	methodUpgradeAndCall          = "upgradeAndCall"
	methodUpgradeTo               = "upgradeTo"
	methodUpgradeToAndCall        = "upgradeToAndCall"

	// OpenZeppelin 5 contracts only expose the *AndCall variants
	upgradeInterfaceV5 = "5.0.0"
)

var (
	ProxyAdminABI  = mustParseABI(proxyAdminABIJSON)
	UpgradeableABI = mustParseABI(upgradeableABIJSON)

	// EIP-1967 storage slots
	ImplementationSlot = common.HexToHash("0x360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc")
	AdminSlot          = common.HexToHash("0xb53127684a568b3173ae13b9f8a6016e243e63b6e8ee1178d6a717850b5d6103")
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
