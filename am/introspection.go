package am

import (
	"os"
	"sort"
	"strings"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/tracekit/tracekit.toml
	SourceUser        ConfigSource = "user"        // ~/.tracekit/tracekit.toml
	SourceProject     ConfigSource = "project"     // nearest tracekit.toml
	SourceEnvironment ConfigSource = "environment" // TRACEKIT_* env vars
)

// SourceOrder lists the sources from lowest to highest precedence
var SourceOrder = []ConfigSource{SourceDefault, SourceSystem, SourceUser, SourceProject, SourceEnvironment}

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource
	Path   string // file path or environment variable name
}

// ConfigSources records, per dotted key, the file that last set it. Keys
// absent here come from the defaults or the environment.
var ConfigSources = make(map[string]SourceInfo)

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key"`
	Value      interface{}  `json:"value"`
	Source     ConfigSource `json:"source"`
	SourcePath string       `json:"source_path,omitempty"`
}

// GetConfigIntrospection lists every effective setting with its source,
// sorted by key
func GetConfigIntrospection() []SettingInfo {
	v := GetViper()

	var settings []SettingInfo
	flattenSettingsWithSources(v.AllSettings(), "", &settings, ConfigSources)
	return settings
}

func flattenSettingsWithSources(settings map[string]interface{}, prefix string, out *[]SettingInfo, sourceMap map[string]SourceInfo) {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := settings[key]
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]interface{}); ok {
			flattenSettingsWithSources(nested, fullKey, out, sourceMap)
			continue
		}

		info := SourceInfo{Source: SourceDefault, Path: "built-in default"}
		if si, ok := sourceMap[fullKey]; ok {
			info = si
		}
		if envKey := EnvKey(fullKey); os.Getenv(envKey) != "" {
			info = SourceInfo{Source: SourceEnvironment, Path: envKey}
		}

		*out = append(*out, SettingInfo{
			Key:        fullKey,
			Value:      value,
			Source:     info.Source,
			SourcePath: info.Path,
		})
	}
}

// EnvKey returns the environment variable that overrides a dotted key
func EnvKey(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
