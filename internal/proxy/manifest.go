package proxy

import (
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"path/filepath"
	"time"

	fsjson "github.com/compose-network/boxctl/internal/infra/filesystem/json"
	"github.com/ethereum/go-ethereum/common"
)

const manifestVersion = "1"

type (
	// Manifest records what has been deployed on one chain, so an unchanged
	// implementation is not deployed twice.
	Manifest struct {
		Version         string                               `json:"manifestVersion"`
		ChainID         uint64                               `json:"chainId"`
		Implementations map[common.Hash]ImplementationRecord `json:"impls"`
		Proxies         []ProxyRecord                        `json:"proxies"`
	}

	ImplementationRecord struct {
		Address      common.Address `json:"address"`
		ContractName string         `json:"contractName"`
		TxHash       common.Hash    `json:"txHash"`
		DeployedAt   time.Time      `json:"deployedAt"`
	}

	ProxyRecord struct {
		Address        common.Address `json:"address"`
		Kind           Kind           `json:"kind"`
		Implementation common.Address `json:"implementation"`
		UpgradedAt     time.Time      `json:"upgradedAt"`
	}

	// ManifestStore reads and writes manifests below a directory, one file per chain.
	ManifestStore struct {
		dir    string
		reader *fsjson.Reader
		writer *fsjson.Writer
	}
)

func NewManifestStore(dir string) *ManifestStore {
	return &ManifestStore{
		dir:    dir,
		reader: fsjson.NewReader(),
		writer: fsjson.NewWriter(),
	}
}

// Path follows the OpenZeppelin naming of network files.
func (s *ManifestStore) Path(chainID *big.Int) string {
	return filepath.Join(s.dir, fmt.Sprintf("unknown-%s.json", chainID.String()))
}

// Load returns the manifest for chainID, or an empty one if none was written yet.
func (s *ManifestStore) Load(chainID *big.Int) (*Manifest, error) {
	manifest := &Manifest{
		Version:         manifestVersion,
		ChainID:         chainID.Uint64(),
		Implementations: make(map[common.Hash]ImplementationRecord),
	}

	err := s.reader.ReadJSON(s.Path(chainID), manifest)
	if errors.Is(err, fs.ErrNotExist) {
		return manifest, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load deployment manifest: %w", err)
	}
	if manifest.Implementations == nil {
		manifest.Implementations = make(map[common.Hash]ImplementationRecord)
	}

	return manifest, nil
}

func (s *ManifestStore) Save(manifest *Manifest) error {
	if err := s.writer.WriteJSON(s.Path(new(big.Int).SetUint64(manifest.ChainID)), manifest); err != nil {
		return fmt.Errorf("failed to save deployment manifest: %w", err)
	}
	return nil
}

// RecordProxy adds or replaces the entry for a proxy.
func (m *Manifest) RecordProxy(record ProxyRecord) {
	for i, existing := range m.Proxies {
		if existing.Address == record.Address {
			m.Proxies[i] = record
			return
		}
	}
	m.Proxies = append(m.Proxies, record)
}
