package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	// AppDirectoryName is the per-user application data directory name.
	AppDirectoryName = "msgsync"
	// DefaultAPIURL is the API root used when nothing else is configured.
	DefaultAPIURL = "http://127.0.0.1:8080/api"
	// DefaultListenAddr is the server bind address.
	DefaultListenAddr = "0.0.0.0:8080"
	// DefaultPlaceholder is the input hint shown by the client.
	DefaultPlaceholder = "Add new message"
	// DefaultLogLevel is the logrus level used when unset.
	DefaultLogLevel = "info"
	// configFileName is the persisted configuration file.
	configFileName = "config.json"
)

// Environment variable names read on top of config.json.
const (
	EnvDataDir    = "MSGSYNC_DATA_DIR"
	EnvAPIURL     = "MSGSYNC_API_URL"
	EnvListenAddr = "MSGSYNC_LISTEN_ADDR"
	EnvLogLevel   = "MSGSYNC_LOG_LEVEL"
	EnvWriteRate  = "MSGSYNC_WRITE_RATE"
)

// Settings contains persistent client and server settings.
type Settings struct {
	ClientID    string  `json:"client_id"`
	APIURL      string  `json:"api_url"`
	Placeholder string  `json:"placeholder"`
	ListenAddr  string  `json:"listen_addr"`
	Advertise   bool    `json:"advertise"`
	WriteRate   float64 `json:"write_rate"`
	WriteBurst  int     `json:"write_burst"`
	LogLevel    string  `json:"log_level"`
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %q: %w", path, err)
	}
	return nil
}

// ResolveDataDir returns the OS-aware app data directory.
//
// If MSGSYNC_DATA_DIR is set, its value is used as an explicit override.
func ResolveDataDir() (string, error) {
	if override := os.Getenv(EnvDataDir); override != "" {
		return override, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		base := os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(base, AppDirectoryName), nil
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", AppDirectoryName), nil
	default:
		base := os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			base = filepath.Join(home, ".config")
		}
		return filepath.Join(base, AppDirectoryName), nil
	}
}

// ConfigPath returns the full path to config.json for a data directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, configFileName)
}

// Load reads and unmarshals config.json from disk.
func Load(path string) (*Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Settings
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

// Save marshals and writes config.json to disk.
func Save(path string, cfg *Settings) error {
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	raw = append(raw, '\n')
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// LoadOrCreate ensures the data directory and config exist, then returns
// the settings with environment overrides applied and the config path.
// Overrides are never written back to disk.
func LoadOrCreate() (*Settings, string, error) {
	dataDir, err := ResolveDataDir()
	if err != nil {
		return nil, "", err
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, "", fmt.Errorf("create directory %q: %w", dataDir, err)
	}

	cfgPath := ConfigPath(dataDir)
	cfg, err := Load(cfgPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", err
		}

		cfg = defaultSettings()
		if err := Save(cfgPath, cfg); err != nil {
			return nil, "", err
		}
	} else if normalizeDefaults(cfg) {
		if err := Save(cfgPath, cfg); err != nil {
			return nil, "", err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, "", err
	}
	return cfg, cfgPath, nil
}

func defaultSettings() *Settings {
	return &Settings{
		ClientID:    uuid.NewString(),
		APIURL:      DefaultAPIURL,
		Placeholder: DefaultPlaceholder,
		ListenAddr:  DefaultListenAddr,
		LogLevel:    DefaultLogLevel,
	}
}

func normalizeDefaults(cfg *Settings) bool {
	updated := false

	if cfg.ClientID == "" {
		cfg.ClientID = uuid.NewString()
		updated = true
	}
	if strings.TrimSpace(cfg.APIURL) == "" {
		cfg.APIURL = DefaultAPIURL
		updated = true
	}
	if cfg.Placeholder == "" {
		cfg.Placeholder = DefaultPlaceholder
		updated = true
	}
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = DefaultListenAddr
		updated = true
	}
	if cfg.WriteRate < 0 {
		cfg.WriteRate = 0
		updated = true
	}
	if cfg.WriteBurst < 0 {
		cfg.WriteBurst = 0
		updated = true
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
		updated = true
	}

	return updated
}

func applyEnv(cfg *Settings) error {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvListenAddr)); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvWriteRate)); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil || rate < 0 {
			return fmt.Errorf("invalid %s value %q", EnvWriteRate, v)
		}
		cfg.WriteRate = rate
	}
	return nil
}
