package internal

import (
	"os"
	"path/filepath"
)

// ConfigFileName is the repository configuration file looked up by
// DiscoverConfig.
const ConfigFileName = "ansuz.yaml"

// ConfigEnvVar overrides discovery when set.
const ConfigEnvVar = "ANSUZ_CONFIG"

// DiscoverConfig resolves the configuration file path. Precedence: an
// explicit path, then $ANSUZ_CONFIG, then the nearest ansuz.yaml walking
// up from dir. An empty result means no config was found and defaults
// apply.
func DiscoverConfig(explicit, dir string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(ConfigEnvVar); env != "" {
		return env, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(abs, ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", nil
		}
		abs = parent
	}
}

// ResolveRoot returns the absolute repository root for a config loaded
// from configPath. A relative Repository.Root is anchored at the config
// file's directory, or at dir when no config file was found.
func ResolveRoot(cfg *Config, configPath, dir string) (string, error) {
	root := cfg.Repository.Root
	if filepath.IsAbs(root) {
		return filepath.Clean(root), nil
	}
	base := dir
	if configPath != "" {
		base = filepath.Dir(configPath)
	}
	return filepath.Abs(filepath.Join(base, root))
}
