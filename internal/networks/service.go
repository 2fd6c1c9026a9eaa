package networks

import (
	"fmt"
	"io"

	"github.com/compose-network/boxctl/configs"
	"gopkg.in/yaml.v3"
)

// Print writes cfg as YAML with every secret redacted.
func Print(out io.Writer, cfg configs.Config) error {
	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)

	if err := encoder.Encode(cfg.Redacted()); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	return encoder.Close()
}
