package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Environment is a snapshot of the variables the loader reads.
type Environment map[string]string

const DefaultDotEnvFile = ".env"

// Lookup returns the first value among keys that is not blank. The value is
// returned as it was set.
func (e Environment) Lookup(keys ...string) (string, bool) {
	for _, key := range keys {
		if value := e[key]; strings.TrimSpace(value) != "" {
			return value, true
		}
	}
	return "", false
}

// EnvironmentFromPairs builds an Environment from KEY=VALUE pairs as returned
// by os.Environ.
func EnvironmentFromPairs(pairs []string) Environment {
	env := make(Environment, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// ReadEnvironment reads the dotenv file at path and overlays process on top of
// it, so variables set in the process win. A missing dotenv file is ignored.
func ReadEnvironment(path string, process Environment) (Environment, error) {
	env := make(Environment)

	if path != "" {
		fileEnv, err := readDotEnv(path)
		if err != nil {
			return nil, err
		}
		for key, value := range fileEnv {
			env[key] = value
		}
	}

	for key, value := range process {
		env[key] = value
	}

	return env, nil
}

func readDotEnv(path string) (Environment, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read env file '%s': %w", path, err)
	}

	env := make(Environment)
	for _, key := range v.AllKeys() {
		// viper lower-cases keys; environment variables are upper case by convention
		env[strings.ToUpper(key)] = v.GetString(key)
	}
	return env, nil
}
