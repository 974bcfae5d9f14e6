// Package config loads the Sert native-layer settings from ~/.sert/config.yaml,
// .env files and SERT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Clipboard backend names
const (
	ClipboardToolkit = "toolkit" // fyne clipboard, requires the GUI shell
	ClipboardSystem  = "system"  // platform utilities as subprocesses
	ClipboardMemory  = "memory"  // in-process, for headless runs
)

// Interpreter overrides read from the environment
const (
	EnvPythonPath      = "SERT_PYTHON"
	EnvUseSystemPython = "SERT_USE_SYSTEM_PYTHON"
)

// Config holds all configuration settings
type Config struct {
	// Listen is the address of the front-end HTTP server
	Listen string `yaml:"listen" mapstructure:"listen"`

	// OpenBrowser opens the first editor window on start-up
	OpenBrowser bool `yaml:"open_browser" mapstructure:"open_browser"`

	Frontend  FrontendConfig  `yaml:"frontend" mapstructure:"frontend"`
	Python    PythonConfig    `yaml:"python" mapstructure:"python"`
	Clipboard ClipboardConfig `yaml:"clipboard" mapstructure:"clipboard"`
	Drop      DropConfig      `yaml:"drop" mapstructure:"drop"`
	Menu      MenuConfig      `yaml:"menu" mapstructure:"menu"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

type FrontendConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

type PythonConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`             // Explicit interpreter, wins over discovery
	UseSystem bool   `yaml:"use_system" mapstructure:"use_system"` // Skip the bundled interpreter
}

type ClipboardConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
}

type DropConfig struct {
	AckTimeout   time.Duration `yaml:"ack_timeout" mapstructure:"ack_timeout"`
	ReadyTimeout time.Duration `yaml:"ready_timeout" mapstructure:"ready_timeout"`
}

type MenuConfig struct {
	RetryDelay  time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	EvalTimeout time.Duration `yaml:"eval_timeout" mapstructure:"eval_timeout"`
}

type StoreConfig struct {
	Path        string `yaml:"path" mapstructure:"path"`
	RecentLimit int    `yaml:"recent_limit" mapstructure:"recent_limit"`
}

type LogConfig struct {
	Debug      bool     `yaml:"debug" mapstructure:"debug"`
	Categories []string `yaml:"categories" mapstructure:"categories"`
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sert")
}

// GetConfigPath returns the full path to the config file.
func GetConfigPath() string {
	dir := GetConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// GetAppDataDir returns the per-user data directory (extensions, state database).
func GetAppDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		switch runtime.GOOS {
		case "darwin", "windows":
			return filepath.Join(dir, "Sert")
		default:
			return filepath.Join(dir, "sert")
		}
	}
	return GetConfigDir()
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Listen:      "127.0.0.1:7417",
		OpenBrowser: true,
		Frontend: FrontendConfig{
			Dir: defaultFrontendDir(),
		},
		Clipboard: ClipboardConfig{
			Backend: ClipboardToolkit,
		},
		Drop: DropConfig{
			AckTimeout:   1500 * time.Millisecond,
			ReadyTimeout: 10 * time.Second,
		},
		Menu: MenuConfig{
			RetryDelay:  500 * time.Millisecond,
			EvalTimeout: 5 * time.Second,
		},
		Store: StoreConfig{
			Path:        filepath.Join(GetAppDataDir(), "state.db"),
			RecentLimit: 10,
		},
	}
}

// defaultFrontendDir prefers a "frontend" directory next to the executable,
// falling back to ./dist for development checkouts.
func defaultFrontendDir() string {
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Join(filepath.Dir(exe), "frontend")
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return "dist"
}

// Load loads configuration from file. An empty path searches the standard
// locations; a missing file is not an error.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("listen", cfg.Listen)
	v.SetDefault("open_browser", cfg.OpenBrowser)
	v.SetDefault("frontend.dir", cfg.Frontend.Dir)
	v.SetDefault("python.path", "")
	v.SetDefault("python.use_system", false)
	v.SetDefault("clipboard.backend", cfg.Clipboard.Backend)
	v.SetDefault("drop.ack_timeout", cfg.Drop.AckTimeout)
	v.SetDefault("drop.ready_timeout", cfg.Drop.ReadyTimeout)
	v.SetDefault("menu.retry_delay", cfg.Menu.RetryDelay)
	v.SetDefault("menu.eval_timeout", cfg.Menu.EvalTimeout)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("store.recent_limit", cfg.Store.RecentLimit)
	v.SetDefault("log.debug", false)
	v.SetDefault("log.categories", []string{})

	v.SetEnvPrefix("SERT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".sert")
		if dir := GetConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path != "" && os.IsNotExist(err)) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyPythonEnv(&cfg.Python); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	switch c.Clipboard.Backend {
	case ClipboardToolkit, ClipboardSystem, ClipboardMemory:
	default:
		return fmt.Errorf("invalid clipboard.backend %q (want %s, %s or %s)",
			c.Clipboard.Backend, ClipboardToolkit, ClipboardSystem, ClipboardMemory)
	}
	if c.Drop.AckTimeout <= 0 {
		return fmt.Errorf("drop.ack_timeout must be positive")
	}
	if c.Drop.ReadyTimeout <= 0 {
		return fmt.Errorf("drop.ready_timeout must be positive")
	}
	if c.Menu.EvalTimeout <= 0 {
		return fmt.Errorf("menu.eval_timeout must be positive")
	}
	if c.Store.RecentLimit <= 0 {
		return fmt.Errorf("store.recent_limit must be positive")
	}
	return nil
}

// applyPythonEnv honours SERT_PYTHON and SERT_USE_SYSTEM_PYTHON, the names the
// build scripts used. viper's AutomaticEnv treats SERT_PYTHON as the whole
// "python" section and shadows every python.* key, so these are read directly.
func applyPythonEnv(p *PythonConfig) error {
	if path, ok := os.LookupEnv(EnvPythonPath); ok && path != "" {
		p.Path = path
	}
	if raw, ok := os.LookupEnv(EnvUseSystemPython); ok && raw != "" {
		use, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvUseSystemPython, raw, err)
		}
		p.UseSystem = use
	}
	return nil
}

// loadEnvFiles loads .env files in order of precedence
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}

	if dir := GetConfigDir(); dir != "" {
		homeEnvFile := filepath.Join(dir, ".env")
		if _, err := os.Stat(homeEnvFile); err == nil {
			_ = godotenv.Load(homeEnvFile)
		}
	}
}

// EnsureDefaultFile writes the default config to path if nothing exists there.
// Returns true if a file was created.
func EnsureDefaultFile(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, err
	}

	body, err := yaml.Marshal(fileDefaults(Default()))
	if err != nil {
		return false, err
	}

	header := "# Sert native layer configuration\n" +
		"# This file is automatically created on first run\n" +
		"# Environment variables SERT_<SECTION>_<KEY> override any value below.\n\n"

	if err := os.WriteFile(path, append([]byte(header), body...), 0644); err != nil {
		return false, err
	}
	return true, nil
}

// fileDefaults renders durations as strings so the file reads naturally.
func fileDefaults(c *Config) map[string]interface{} {
	return map[string]interface{}{
		"listen":       c.Listen,
		"open_browser": c.OpenBrowser,
		"frontend":     map[string]interface{}{"dir": c.Frontend.Dir},
		"python":       map[string]interface{}{"path": "", "use_system": false},
		"clipboard":    map[string]interface{}{"backend": c.Clipboard.Backend},
		"drop": map[string]interface{}{
			"ack_timeout":   c.Drop.AckTimeout.String(),
			"ready_timeout": c.Drop.ReadyTimeout.String(),
		},
		"menu": map[string]interface{}{
			"retry_delay":  c.Menu.RetryDelay.String(),
			"eval_timeout": c.Menu.EvalTimeout.String(),
		},
		"store": map[string]interface{}{"recent_limit": c.Store.RecentLimit},
		"log":   map[string]interface{}{"debug": false},
	}
}
