package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/shinji-kodama/xlsx2csv/internal/model"
)

// EnvConfig names an explicit config file path, taking precedence over the
// search paths.
const EnvConfig = "XLSX2CSV_CONFIG"

// Config holds the file-backed defaults. All fields are optional; the zero
// value means "use the built-in default". Flags always win over Config.
type Config struct {
	// Encoding is the default output encoding alias
	// (utf8, UTF-8, sjis, Shift-JIS).
	Encoding string `json:"encoding,omitempty"`

	// Engine is the default conversion engine (auto, office, native, docker).
	Engine string `json:"engine,omitempty"`

	// SofficePath is the office binary to invoke, overriding PATH discovery.
	SofficePath string `json:"sofficePath,omitempty"`

	// DockerImage is the converter container image for the docker engine.
	DockerImage string `json:"dockerImage,omitempty"`
}

// Load finds and parses the configuration file.
//
// Search order, first match wins:
//  1. $XLSX2CSV_CONFIG (must exist when set)
//  2. .xlsx2csv.jsonc in the launch directory
//  3. $XDG_CONFIG_HOME/xlsx2csv/config.jsonc (~/.config when unset)
//
// No file found returns an empty Config; a file that exists but does not
// parse is a config error.
func Load() (*Config, error) {
	if explicit := os.Getenv(EnvConfig); explicit != "" {
		return loadFile(explicit)
	}

	for _, path := range searchPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return loadFile(path)
	}
	return &Config{}, nil
}

// searchPaths returns the implicit config locations in precedence order.
func searchPaths() []string {
	paths := []string{".xlsx2csv.jsonc"}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configHome = filepath.Join(home, ".config")
		}
	}
	if configHome != "" {
		paths = append(paths, filepath.Join(configHome, "xlsx2csv", "config.jsonc"))
	}
	return paths
}

// loadFile reads and parses one JSONC config file.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(model.KindConfig,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	// jsonc.ToJSON strips comments and trailing commas, leaving standard
	// JSON for encoding/json.
	var cfg Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return nil, model.WrapCLIError(model.KindConfig,
			fmt.Sprintf("invalid config file %s", path), err)
	}

	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects values that would only fail later with a less precise
// message.
func (c *Config) validate(path string) error {
	if c.Encoding != "" {
		if _, err := model.ParseEncoding(c.Encoding); err != nil {
			return model.WrapCLIError(model.KindConfig,
				fmt.Sprintf("invalid config file %s", path), err)
		}
	}
	if c.Engine != "" {
		if _, err := model.ParseEngine(c.Engine); err != nil {
			return model.WrapCLIError(model.KindConfig,
				fmt.Sprintf("invalid config file %s", path), err)
		}
	}
	return nil
}
