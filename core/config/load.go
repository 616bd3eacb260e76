package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"

	shellerrors "github.com/josephlewis42/sshell/errors"
)

// LoadFs loads the configuration from the directory on the given filesystem.
func LoadFs(configFs afero.Fs, path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	configPath := filepath.Join(path, ConfigurationName)
	configContents, err := afero.ReadFile(configFs, configPath)
	if err != nil {
		return nil, err
	}
	var out Configuration
	if err := yaml.UnmarshalStrict(configContents, &out); err != nil {
		return nil, &shellerrors.ConfigInvalidError{Path: configPath, Err: err}
	}
	if err := out.Validate(); err != nil {
		return nil, &shellerrors.ConfigInvalidError{Path: configPath, Err: err}
	}
	return &out, nil
}

// LoadOrDefault loads the configuration from the directory, falling back to
// the built-in configuration if there is no config file.
func LoadOrDefault(configFs afero.Fs, path string) (*Configuration, error) {
	cfg, err := LoadFs(configFs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Initialize writes the default configuration into dir if one doesn't
// already exist.
func Initialize(configFs afero.Fs, dir string, logger *log.Logger) (*Configuration, error) {
	if err := configFs.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	configPath := filepath.Join(dir, ConfigurationName)
	switch _, err := configFs.Stat(configPath); {
	case err == nil:
		logger.Printf("- %s already exists, leaving it alone", configPath)
	case errors.Is(err, os.ErrNotExist):
		logger.Printf("- Writing %s", configPath)
		if err := afero.WriteFile(configFs, configPath, defaultConfigData, 0644); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return LoadFs(configFs, dir)
}
