package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete taskpanel configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Project ProjectConfig `mapstructure:"project" yaml:"project"`
	Panel   PanelConfig   `mapstructure:"panel" yaml:"panel"`
	WebHost WebHostConfig `mapstructure:"webhost" yaml:"webhost"`
	TUI     TUIConfig     `mapstructure:"tui" yaml:"tui"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig locates the orchestration server
type ServerConfig struct {
	// URL is the server's base address (default: http://localhost:8000)
	URL string `mapstructure:"url" yaml:"url"`
	// TimeoutSeconds bounds each request (default: 10)
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	// Offline serves a built-in sample snapshot instead of contacting the server
	Offline bool `mapstructure:"offline" yaml:"offline"`
}

// ProjectConfig describes the project being orchestrated
type ProjectConfig struct {
	// PlanFile is the plan sent with initProject (default: project_plan_template.json)
	PlanFile string `mapstructure:"plan_file" yaml:"plan_file"`
	// ExtensionRoot holds the panel's media/ directory. Empty means the
	// current working directory.
	ExtensionRoot string `mapstructure:"extension_root" yaml:"extension_root"`
}

// PanelConfig controls the project plan panel
type PanelConfig struct {
	// WatchPlanFile re-renders the open panel when the plan file changes (default: true)
	WatchPlanFile bool `mapstructure:"watch_plan_file" yaml:"watch_plan_file"`
	// WatchDebounceMs is the quiet period before a re-render (default: 100)
	WatchDebounceMs int `mapstructure:"watch_debounce_ms" yaml:"watch_debounce_ms"`
}

// WebHostConfig controls the browser host
type WebHostConfig struct {
	// ListenAddr is the address the host serves on (default: 127.0.0.1:8765)
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
	// OpenBrowser prints the panel URL instead of opening it when false
	OpenBrowser bool `mapstructure:"open_browser" yaml:"open_browser"`
}

// TUIConfig controls the terminal host
type TUIConfig struct {
	// SidebarWidth is the width of the status tree in columns (default: 36, min: 20, max: 60)
	SidebarWidth int `mapstructure:"sidebar_width" yaml:"sidebar_width"`
	// RefreshIntervalMs re-queries expanded buckets this often; 0 disables polling (default: 2000)
	RefreshIntervalMs int `mapstructure:"refresh_interval_ms" yaml:"refresh_interval_ms"`
	// Theme is the color theme (default: "default")
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logs are written (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the minimum level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is where taskpanel.log is written. Empty means stderr for
	// commands and the config directory for the terminal UI.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:            "http://localhost:8000",
			TimeoutSeconds: 10,
			Offline:        false,
		},
		Project: ProjectConfig{
			PlanFile:      "project_plan_template.json",
			ExtensionRoot: "",
		},
		Panel: PanelConfig{
			WatchPlanFile:   true,
			WatchDebounceMs: 100,
		},
		WebHost: WebHostConfig{
			ListenAddr:  "127.0.0.1:8765",
			OpenBrowser: false,
		},
		TUI: TUIConfig{
			SidebarWidth:      36,
			RefreshIntervalMs: 2000,
			Theme:             "default",
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
			Dir:     "",
		},
	}
}

// Timeout returns the request timeout as a time.Duration
func (c *ServerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// WatchDebounce returns the watch debounce as a time.Duration
func (c *PanelConfig) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceMs) * time.Millisecond
}

// RefreshInterval returns the refresh interval as a time.Duration (0 means disabled)
func (c *TUIConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMs) * time.Millisecond
}

// ResolveExtensionRoot returns the absolute extension root.
// Empty means the current working directory; ~ expands to the home directory.
func (p *ProjectConfig) ResolveExtensionRoot() string {
	path := expandHome(p.ExtensionRoot)
	if path == "" {
		path = "."
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// ResolvePlanFile returns the plan file path with ~ expanded.
func (p *ProjectConfig) ResolvePlanFile() string {
	return expandHome(p.PlanFile)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Server defaults
	viper.SetDefault("server.url", defaults.Server.URL)
	viper.SetDefault("server.timeout_seconds", defaults.Server.TimeoutSeconds)
	viper.SetDefault("server.offline", defaults.Server.Offline)

	// Project defaults
	viper.SetDefault("project.plan_file", defaults.Project.PlanFile)
	viper.SetDefault("project.extension_root", defaults.Project.ExtensionRoot)

	// Panel defaults
	viper.SetDefault("panel.watch_plan_file", defaults.Panel.WatchPlanFile)
	viper.SetDefault("panel.watch_debounce_ms", defaults.Panel.WatchDebounceMs)

	// Web host defaults
	viper.SetDefault("webhost.listen_addr", defaults.WebHost.ListenAddr)
	viper.SetDefault("webhost.open_browser", defaults.WebHost.OpenBrowser)

	// TUI defaults
	viper.SetDefault("tui.sidebar_width", defaults.TUI.SidebarWidth)
	viper.SetDefault("tui.refresh_interval_ms", defaults.TUI.RefreshIntervalMs)
	viper.SetDefault("tui.theme", defaults.TUI.Theme)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults when the
// loaded configuration is invalid
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "taskpanel")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskpanel"
	}
	return filepath.Join(home, ".config", "taskpanel")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
