package configs

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

var (
	//go:embed networks.yaml
	defaultCatalogYAML string

	defaultCatalogOnce sync.Once
	defaultCatalog     Catalog
	defaultCatalogErr  error
)

// DefaultCatalog returns the parsed catalog from the embedded networks.yaml.
func DefaultCatalog() (Catalog, error) {
	defaultCatalogOnce.Do(func() {
		v := viper.New()
		v.SetConfigType("yaml")
		if err := v.ReadConfig(strings.NewReader(defaultCatalogYAML)); err != nil {
			defaultCatalogErr = fmt.Errorf("failed to read embedded networks.yaml: %w", err)
			return
		}

		if err := v.Unmarshal(&defaultCatalog); err != nil {
			defaultCatalogErr = fmt.Errorf("failed to decode embedded networks.yaml: %w", err)
			return
		}
	})

	if defaultCatalogErr != nil {
		return Catalog{}, defaultCatalogErr
	}

	return defaultCatalog.clone(), nil
}

// MustDefaultCatalog returns the embedded catalog or panics if it cannot be loaded.
func MustDefaultCatalog() Catalog {
	catalog, err := DefaultCatalog()
	if err != nil {
		panic(err)
	}
	return catalog
}

// LoadCatalog reads a catalog file on top of the embedded one. An empty path
// returns the embedded catalog unchanged.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(defaultCatalogYAML)); err != nil {
		return Catalog{}, fmt.Errorf("failed to read embedded networks.yaml: %w", err)
	}

	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		const errMsg = "error reading network catalog"
		return Catalog{}, errors.Join(err, fmt.Errorf("%s '%s'", errMsg, path))
	}

	var catalog Catalog
	if err := v.Unmarshal(&catalog); err != nil {
		return Catalog{}, fmt.Errorf("unable to decode network catalog '%s': %w", path, err)
	}

	return catalog, nil
}

func (c Catalog) clone() Catalog {
	out := c
	out.Networks = make(map[NetworkName]NetworkEntry, len(c.Networks))
	for name, entry := range c.Networks {
		entry.URLEnv = append([]string(nil), entry.URLEnv...)
		out.Networks[name] = entry
	}
	out.NamedAccounts = make(map[string]int, len(c.NamedAccounts))
	for name, index := range c.NamedAccounts {
		out.NamedAccounts[name] = index
	}
	return out
}
