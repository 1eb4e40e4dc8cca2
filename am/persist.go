package am

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/teranos/tracekit/errors"
)

// backupDepth is how many rotated backups are kept next to a config file
const backupDepth = 3

// createBackup rotates .back1 .. .back3 before a config file is overwritten
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	oldest := fmt.Sprintf("%s.back%d", configPath, backupDepth)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to delete old backup %s", oldest)
	}
	for i := backupDepth - 1; i >= 1; i-- {
		from := fmt.Sprintf("%s.back%d", configPath, i)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		to := fmt.Sprintf("%s.back%d", configPath, i+1)
		if err := os.Rename(from, to); err != nil {
			return errors.Wrapf(err, "failed to rotate %s", from)
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	if err := os.WriteFile(configPath+".back1", content, 0644); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}
	return nil
}

// Save writes cfg as TOML to configPath, backing up any existing file first
func Save(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	if err := createBackup(configPath); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", configPath)
	}
	return nil
}

// Defaults returns the configuration made of built-in defaults only
func Defaults() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	return LoadWithViper(v)
}
