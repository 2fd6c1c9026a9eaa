package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrArtifactNotFound = errors.New("artifact not found")

// Artifact is a compiled contract as emitted by the Hardhat compiler.
type Artifact struct {
	ContractName string
	SourceName   string
	ABI          abi.ABI
	Bytecode     []byte
}

// BytecodeHash identifies an implementation independently of where it is deployed.
func (a Artifact) BytecodeHash() common.Hash {
	return crypto.Keccak256Hash(a.Bytecode)
}

// Store resolves artifacts below a Hardhat artifacts directory.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

// Load reads the artifact of the named contract and, when the contract has a
// declared Interface, checks the ABI against it.
func (s *Store) Load(name string) (Artifact, error) {
	path, err := s.find(name)
	if err != nil {
		return Artifact{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}

	artifact, err := Parse(data)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}

	if iface, ok := Interfaces[artifact.ContractName]; ok {
		if err := iface.Check(artifact.ABI); err != nil {
			return Artifact{}, fmt.Errorf("artifact %s: %w", path, err)
		}
	}

	return artifact, nil
}

// Parse decodes a single Hardhat artifact.
func Parse(data []byte) (Artifact, error) {
	var raw struct {
		ContractName string          `json:"contractName"`
		SourceName   string          `json:"sourceName"`
		ABI          json.RawMessage `json:"abi"`
		Bytecode     string          `json:"bytecode"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Artifact{}, fmt.Errorf("failed to unmarshal artifact: %w", err)
	}
	if raw.ContractName == "" {
		return Artifact{}, errors.New("artifact has no contractName")
	}
	if len(raw.ABI) == 0 {
		return Artifact{}, fmt.Errorf("artifact %s has no abi", raw.ContractName)
	}

	parsedABI, err := abi.JSON(strings.NewReader(string(raw.ABI)))
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to parse ABI for %s: %w", raw.ContractName, err)
	}

	return Artifact{
		ContractName: raw.ContractName,
		SourceName:   raw.SourceName,
		ABI:          parsedABI,
		Bytecode:     common.FromHex(raw.Bytecode),
	}, nil
}

// find prefers the conventional contracts/<Name>.sol/<Name>.json location and
// falls back to searching the whole tree.
func (s *Store) find(name string) (string, error) {
	conventional := filepath.Join(s.root, "contracts", name+".sol", name+".json")
	if _, err := os.Stat(conventional); err == nil {
		return conventional, nil
	}

	var found string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == name+".json" {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to search artifacts in %s: %w", s.root, err)
	}
	if found == "" {
		return "", fmt.Errorf("%w: '%s' under %s (run the compiler first)", ErrArtifactNotFound, name, s.root)
	}

	return found, nil
}
