package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/tracekit/errors"
)

// EnvPrefix prefixes every environment override (TRACEKIT_SPLIT_SEED, ...)
const EnvPrefix = "TRACEKIT"

// ProjectConfigName is the file searched for from the working directory up
const ProjectConfigName = "tracekit.toml"

var globalConfig *Config
var viperInstance *viper.Viper

// Load reads the tracekit configuration using Viper
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	cfg, err := LoadWithViper(initViper())
	if err != nil {
		return nil, err
	}
	globalConfig = cfg
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path on top of the
// defaults, without consulting other files or the environment
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "config file %s", configPath)
	}
	return cfg, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viperInstance = nil
	ConfigSources = make(map[string]SourceInfo)
}

// initViper initializes Viper with configuration sources and defaults
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
	mergeConfigFiles(v, configPaths())

	viperInstance = v
	return v
}

// findProjectConfig walks up from the working directory and returns the
// first tracekit.toml found, or "" when there is none
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, ProjectConfigName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

type configPath struct {
	source ConfigSource
	path   string
}

// configPaths lists the config files in precedence order (lowest first)
func configPaths() []configPath {
	paths := []configPath{
		{SourceSystem, filepath.Join("/etc", "tracekit", ProjectConfigName)},
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, configPath{SourceUser, filepath.Join(home, ".tracekit", ProjectConfigName)})
	}
	if project := findProjectConfig(); project != "" {
		paths = append(paths, configPath{SourceProject, project})
	}
	return paths
}

// mergeConfigFiles merges each existing file over v, recording which file
// set every key
func mergeConfigFiles(v *viper.Viper, paths []configPath) {
	for _, cp := range paths {
		if _, err := os.Stat(cp.path); err != nil {
			continue
		}
		tempViper := viper.New()
		tempViper.SetConfigFile(cp.path)
		tempViper.SetConfigType("toml")
		if err := tempViper.ReadInConfig(); err != nil {
			continue
		}

		for _, key := range tempViper.AllKeys() {
			v.Set(key, tempViper.Get(key))
			ConfigSources[key] = SourceInfo{Source: cp.source, Path: cp.path}
		}
	}
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	return initViper().Get(key)
}
