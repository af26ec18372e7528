package env

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv parses a .env file and returns key-value pairs.
// Supports KEY=value, quoted values, export prefixes, comments and ${VAR}
// references to keys defined earlier in the file.
// Note: This does NOT export to OS environment. Use LoadAndExportDotEnv for that.
func LoadDotEnv(path string) (Vars, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read env file: %w", err)
	}
	return Vars(vars), nil
}

// LoadAndExportDotEnv parses a .env file, returns key-value pairs,
// and exports them to the OS environment.
// Variables are only exported if not already set in the OS environment.
func LoadAndExportDotEnv(path string) (Vars, error) {
	vars, err := LoadDotEnv(path)
	if err != nil {
		return nil, err
	}

	for k, v := range vars {
		if os.Getenv(k) == "" {
			_ = os.Setenv(k, v) // Error ignored: only fails for invalid key names
		}
	}

	return vars, nil
}

// WriteDotEnv writes vars to path, sorted by key, replacing the file.
func WriteDotEnv(path string, vars Vars) error {
	if err := godotenv.Write(map[string]string(vars), path); err != nil {
		return fmt.Errorf("cannot write env file: %w", err)
	}
	return nil
}

// DotEnvSource serves a dotenv file as a single property set, read on every call.
// A missing file yields no property sets.
type DotEnvSource struct {
	Path string
	Name string
}

func (s DotEnvSource) EnvironmentProperties() []PropertySet {
	vars, err := godotenv.Read(s.Path)
	if err != nil {
		return nil
	}
	name := s.Name
	if name == "" {
		name = s.Path
	}
	return []PropertySet{{Name: name, Variables: vars}}
}

func readOptionalDotEnv(path string) (Vars, error) {
	vars, err := LoadDotEnv(path)
	if errors.Is(err, os.ErrNotExist) {
		return Vars{}, nil
	}
	return vars, err
}
