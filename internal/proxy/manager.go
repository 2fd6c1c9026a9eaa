package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/compose-network/boxctl/internal/artifacts"
	"github.com/compose-network/boxctl/internal/contract"
	"github.com/compose-network/boxctl/internal/logger"
	"github.com/compose-network/boxctl/internal/wallet"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	ErrNotProxy          = errors.New("address is not an EIP-1967 proxy")
	ErrUpgradeNotApplied = errors.New("proxy implementation did not change")
)

type (
	Kind string

	// Contract is the subset of contract.Handle the manager needs.
	Contract interface {
		Call(ctx context.Context, method string, args ...any) ([]any, error)
		Send(ctx context.Context, method string, args ...any) (*types.Receipt, error)
	}

	// Chain is the subset of contract.Client the manager needs.
	Chain interface {
		ChainID() *big.Int
		Signer() (wallet.Signer, error)
		CodeAt(ctx context.Context, address common.Address) ([]byte, error)
		StorageAt(ctx context.Context, address common.Address, slot common.Hash) ([]byte, error)
		Deploy(ctx context.Context, artifact artifacts.Artifact, constructorArgs ...any) (common.Address, *types.Receipt, error)
		Bind(address common.Address, parsed abi.ABI) Contract
	}

	// Result describes a finished upgrade. Proxy is the address callers keep
	// using; Implementation is the logic contract it now delegates to.
	Result struct {
		Proxy                  common.Address
		Implementation         common.Address
		PreviousImplementation common.Address
		Admin                  common.Address
		Kind                   Kind
		Deployed               bool
		Upgraded               bool
		TxHash                 common.Hash
	}

	Manager struct {
		chain           Chain
		manifests       *ManifestStore
		saveDeployments bool
		logger          *slog.Logger
		now             func() time.Time
	}

	// upgradeCall is the transaction that repoints a proxy.
	upgradeCall struct {
		target     Contract
		viaAdmin   bool
		authorized common.Address
	}

	clientChain struct {
		*contract.Client
	}
)

const (
	KindTransparent Kind = "transparent"
	KindUUPS        Kind = "uups"
)

// FromClient adapts a contract client to the Chain the manager works on.
func FromClient(client *contract.Client) Chain {
	return clientChain{Client: client}
}

func (c clientChain) Bind(address common.Address, parsed abi.ABI) Contract {
	return c.Client.Bind(address, parsed)
}

// NewManager creates a manager. Manifests are always read from manifests,
// but only written when saveDeployments is set.
func NewManager(chain Chain, manifests *ManifestStore, saveDeployments bool) *Manager {
	return &Manager{
		chain:           chain,
		manifests:       manifests,
		saveDeployments: saveDeployments,
		logger:          logger.Named("proxy_manager"),
		now:             time.Now,
	}
}

// Upgrade deploys implementation (unless an identical one is already
// recorded) and points the proxy at it. Proxy storage is untouched.
func (m *Manager) Upgrade(ctx context.Context, proxyAddress common.Address, implementation artifacts.Artifact) (Result, error) {
	log := m.logger.With("proxy", proxyAddress.Hex()).With("implementation", implementation.ContractName)

	signer, err := m.chain.Signer()
	if err != nil {
		return Result{}, err
	}

	current, admin, err := m.inspect(ctx, proxyAddress)
	if err != nil {
		return Result{}, err
	}

	kind := KindUUPS
	if admin != (common.Address{}) {
		kind = KindTransparent
	}
	log.
		With("kind", kind).
		With("current_implementation", current.Hex()).
		With("admin", admin.Hex()).
		Info("proxy inspected")

	call, err := m.prepareUpgrade(ctx, kind, proxyAddress, admin, signer.Address)
	if err != nil {
		return Result{}, err
	}
	if call.authorized != (common.Address{}) {
		log.With("authorized", call.authorized.Hex()).Debug("signer controls the proxy")
	}

	manifest, err := m.manifests.Load(m.chain.ChainID())
	if err != nil {
		return Result{}, err
	}

	newImplementation, deployed, err := m.ensureImplementation(ctx, manifest, implementation)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Proxy:                  proxyAddress,
		Implementation:         newImplementation,
		PreviousImplementation: current,
		Admin:                  admin,
		Kind:                   kind,
		Deployed:               deployed,
	}

	if newImplementation == current {
		log.Info("proxy already points at this implementation; nothing to upgrade")
		m.persist(manifest, result)
		return result, nil
	}

	receipt, err := m.sendUpgrade(ctx, call, proxyAddress, newImplementation)
	if err != nil {
		return Result{}, fmt.Errorf("failed to upgrade proxy %s: %w", proxyAddress.Hex(), err)
	}
	result.Upgraded = true
	result.TxHash = receipt.TxHash

	after, err := m.readSlotAddress(ctx, proxyAddress, ImplementationSlot)
	if err != nil {
		return Result{}, err
	}
	if after != newImplementation {
		return Result{}, fmt.Errorf("%w: slot holds %s, expected %s", ErrUpgradeNotApplied, after.Hex(), newImplementation.Hex())
	}

	log.
		With("new_implementation", newImplementation.Hex()).
		With("tx_hash", receipt.TxHash.Hex()).
		Info("proxy upgraded")

	m.persist(manifest, result)
	return result, nil
}

func (m *Manager) inspect(ctx context.Context, proxyAddress common.Address) (implementation, admin common.Address, err error) {
	code, err := m.chain.CodeAt(ctx, proxyAddress)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	if len(code) == 0 {
		return common.Address{}, common.Address{}, fmt.Errorf("%w: no contract deployed at %s", ErrNotProxy, proxyAddress.Hex())
	}

	implementation, err = m.readSlotAddress(ctx, proxyAddress, ImplementationSlot)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	if implementation == (common.Address{}) {
		return common.Address{}, common.Address{}, fmt.Errorf("%w: implementation slot of %s is empty", ErrNotProxy, proxyAddress.Hex())
	}

	admin, err = m.readSlotAddress(ctx, proxyAddress, AdminSlot)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}

	return implementation, admin, nil
}

// prepareUpgrade picks the contract to send the upgrade to and checks up
// front that the signer controls it, when that can be known.
func (m *Manager) prepareUpgrade(ctx context.Context, kind Kind, proxyAddress, admin, signer common.Address) (upgradeCall, error) {
	action := "upgrade proxy " + proxyAddress.Hex()

	if kind == KindUUPS {
		// authorization lives in the implementation; a refusal surfaces as a revert
		return upgradeCall{target: m.chain.Bind(proxyAddress, UpgradeableABI)}, nil
	}

	adminCode, err := m.chain.CodeAt(ctx, admin)
	if err != nil {
		return upgradeCall{}, err
	}

	if len(adminCode) == 0 {
		if admin != signer {
			return upgradeCall{}, &contract.AuthorizationError{Action: action, Signer: signer, Required: admin}
		}
		return upgradeCall{target: m.chain.Bind(proxyAddress, UpgradeableABI), authorized: admin}, nil
	}

	proxyAdmin := m.chain.Bind(admin, ProxyAdminABI)
	out, err := proxyAdmin.Call(ctx, methodOwner)
	if err != nil {
		return upgradeCall{}, fmt.Errorf("failed to read owner of proxy admin %s: %w", admin.Hex(), err)
	}
	owner, ok := firstAddress(out)
	if !ok {
		return upgradeCall{}, fmt.Errorf("unexpected owner() result from proxy admin %s", admin.Hex())
	}
	if owner != signer {
		return upgradeCall{}, &contract.AuthorizationError{Action: action, Signer: signer, Required: owner}
	}

	return upgradeCall{target: proxyAdmin, viaAdmin: true, authorized: owner}, nil
}

func (m *Manager) ensureImplementation(ctx context.Context, manifest *Manifest, implementation artifacts.Artifact) (common.Address, bool, error) {
	hash := implementation.BytecodeHash()

	if record, ok := manifest.Implementations[hash]; ok {
		code, err := m.chain.CodeAt(ctx, record.Address)
		if err != nil {
			return common.Address{}, false, err
		}
		if len(code) > 0 {
			m.logger.
				With("address", record.Address.Hex()).
				With("contract", implementation.ContractName).
				Info("reusing previously deployed implementation")
			return record.Address, false, nil
		}
		m.logger.With("address", record.Address.Hex()).Warn("recorded implementation has no code; deploying again")
	}

	address, receipt, err := m.chain.Deploy(ctx, implementation)
	if err != nil {
		return common.Address{}, false, fmt.Errorf("failed to deploy implementation %s: %w", implementation.ContractName, err)
	}

	record := ImplementationRecord{
		Address:      address,
		ContractName: implementation.ContractName,
		DeployedAt:   m.now().UTC(),
	}
	if receipt != nil {
		record.TxHash = receipt.TxHash
	}
	manifest.Implementations[hash] = record
	// recorded before the upgrade is attempted so a failed upgrade reuses it
	m.save(manifest)

	return address, true, nil
}

func (m *Manager) sendUpgrade(ctx context.Context, call upgradeCall, proxyAddress, implementation common.Address) (*types.Receipt, error) {
	andCall := false
	if out, err := call.target.Call(ctx, methodUpgradeInterfaceVersion); err == nil && len(out) == 1 {
		version, _ := out[0].(string)
		andCall = version == upgradeInterfaceV5
	}

	switch {
	case call.viaAdmin && andCall:
		return call.target.Send(ctx, methodUpgradeAndCall, proxyAddress, implementation, []byte{})
	case call.viaAdmin:
		return call.target.Send(ctx, methodUpgrade, proxyAddress, implementation)
	case andCall:
		return call.target.Send(ctx, methodUpgradeToAndCall, implementation, []byte{})
	default:
		return call.target.Send(ctx, methodUpgradeTo, implementation)
	}
}

func (m *Manager) persist(manifest *Manifest, result Result) {
	if !m.saveDeployments {
		return
	}

	manifest.RecordProxy(ProxyRecord{
		Address:        result.Proxy,
		Kind:           result.Kind,
		Implementation: result.Implementation,
		UpgradedAt:     m.now().UTC(),
	})
	m.save(manifest)
}

// save writes the manifest when deployments are being recorded. Failing to
// write it never undoes what is already on chain, so it is only reported.
func (m *Manager) save(manifest *Manifest) {
	if !m.saveDeployments {
		return
	}
	if err := m.manifests.Save(manifest); err != nil {
		m.logger.
			With("chain_id", manifest.ChainID).
			With("err", err).
			Warn("deployment manifest was not updated")
	}
}

func (m *Manager) readSlotAddress(ctx context.Context, address common.Address, slot common.Hash) (common.Address, error) {
	value, err := m.chain.StorageAt(ctx, address, slot)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to read storage slot %s of %s: %w", slot.Hex(), address.Hex(), err)
	}
	return common.BytesToAddress(value), nil
}

func firstAddress(out []any) (common.Address, bool) {
	if len(out) != 1 {
		return common.Address{}, false
	}
	address, ok := out[0].(common.Address)
	return address, ok
}
