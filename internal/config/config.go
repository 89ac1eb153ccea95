// Package config provides configuration management for the demo
// binary with Viper integration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	appName  = "webview-demo"
	dirPerm  = 0755
	filePerm = 0644
)

// Config represents the complete demo configuration.
type Config struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	Backend string        `mapstructure:"backend" yaml:"backend"`
	Debug   bool          `mapstructure:"debug" yaml:"debug"`
	Window  WindowConfig  `mapstructure:"window" yaml:"window"`
	Chrome  ChromeConfig  `mapstructure:"chrome" yaml:"chrome"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// WindowConfig holds window geometry configuration.
type WindowConfig struct {
	Title  string `mapstructure:"title" yaml:"title"`
	Width  int    `mapstructure:"width" yaml:"width"`
	Height int    `mapstructure:"height" yaml:"height"`
	Hint   string `mapstructure:"hint" yaml:"hint"` // none, min, max, fixed
}

// ChromeConfig holds chrome backend launch configuration.
type ChromeConfig struct {
	ExecPath    string   `mapstructure:"exec_path" yaml:"exec_path"`
	Headless    bool     `mapstructure:"headless" yaml:"headless"`
	UserDataDir string   `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	ExtraArgs   []string `mapstructure:"extra_args" yaml:"extra_args"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		URL:     "about:blank",
		Backend: "auto",
		Window: WindowConfig{
			Title:  "webview",
			Width:  800,
			Height: 600,
			Hint:   "none",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Manager loads and watches the configuration file.
type Manager struct {
	viper *viper.Viper

	mu       sync.RWMutex
	config   *Config
	onChange []func(*Config)
}

// NewManager creates a manager reading from dir (empty means the XDG
// config directory).
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		dir = filepath.Join(base, appName)
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("WEBVIEW")
	v.AutomaticEnv()

	m := &Manager{viper: v}
	m.setDefaults()
	return m, nil
}

func (m *Manager) setDefaults() {
	defaults := Defaults()
	m.viper.SetDefault("url", defaults.URL)
	m.viper.SetDefault("backend", defaults.Backend)
	m.viper.SetDefault("debug", defaults.Debug)
	m.viper.SetDefault("window.title", defaults.Window.Title)
	m.viper.SetDefault("window.width", defaults.Window.Width)
	m.viper.SetDefault("window.height", defaults.Window.Height)
	m.viper.SetDefault("window.hint", defaults.Window.Hint)
	m.viper.SetDefault("chrome.exec_path", defaults.Chrome.ExecPath)
	m.viper.SetDefault("chrome.headless", defaults.Chrome.Headless)
	m.viper.SetDefault("chrome.user_data_dir", defaults.Chrome.UserDataDir)
	m.viper.SetDefault("chrome.extra_args", defaults.Chrome.ExtraArgs)
	m.viper.SetDefault("logging.level", defaults.Logging.Level)
	m.viper.SetDefault("logging.format", defaults.Logging.Format)
}

// Load reads the configuration file; a missing file yields defaults.
func (m *Manager) Load() (*Config, error) {
	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := m.viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	m.mu.Lock()
	m.config = &cfg
	m.mu.Unlock()
	return &cfg, nil
}

// Get returns the last loaded configuration, or defaults when Load has
// not run.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		cfg := Defaults()
		return &cfg
	}
	return m.config
}

// OnChange registers fn to run after each config file reload.
func (m *Manager) OnChange(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

// Watch reloads the file on change and notifies OnChange subscribers.
func (m *Manager) Watch() {
	m.viper.WatchConfig()
	m.viper.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := m.Load()
		if err != nil {
			return
		}
		m.mu.RLock()
		subscribers := append(([]func(*Config))(nil), m.onChange...)
		m.mu.RUnlock()
		for _, fn := range subscribers {
			fn(cfg)
		}
	})
}
