package config

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "server.timeout_seconds")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidThemes returns the built-in TUI theme names.
// Must match styles.BuiltinThemes (kept separate to avoid importing the TUI).
func ValidThemes() []string {
	return []string{"default", "monokai", "dracula", "nord"}
}

// Sidebar bounds; must match tui.SidebarMinWidth and tui.SidebarMaxWidth.
const (
	minSidebarWidth = 20
	maxSidebarWidth = 60
)

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateServer()...)
	errors = append(errors, c.validatePanel()...)
	errors = append(errors, c.validateWebHost()...)
	errors = append(errors, c.validateTUI()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateServer validates the ServerConfig
func (c *Config) validateServer() []ValidationError {
	var errors []ValidationError

	// The URL is unused offline, so only check it when it matters.
	if !c.Server.Offline {
		u, err := url.Parse(c.Server.URL)
		switch {
		case c.Server.URL == "":
			errors = append(errors, ValidationError{
				Field:   "server.url",
				Value:   c.Server.URL,
				Message: "must be set unless server.offline is true",
			})
		case err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "":
			errors = append(errors, ValidationError{
				Field:   "server.url",
				Value:   c.Server.URL,
				Message: "must be an absolute http or https URL",
			})
		}
	}

	if c.Server.TimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "server.timeout_seconds",
			Value:   c.Server.TimeoutSeconds,
			Message: "must be positive",
		})
	}

	const maxTimeoutSeconds = 600
	if c.Server.TimeoutSeconds > maxTimeoutSeconds {
		errors = append(errors, ValidationError{
			Field:   "server.timeout_seconds",
			Value:   c.Server.TimeoutSeconds,
			Message: fmt.Sprintf("exceeds maximum of %d seconds", maxTimeoutSeconds),
		})
	}

	return errors
}

// validatePanel validates the PanelConfig
func (c *Config) validatePanel() []ValidationError {
	var errors []ValidationError

	if c.Panel.WatchDebounceMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "panel.watch_debounce_ms",
			Value:   c.Panel.WatchDebounceMs,
			Message: "must be non-negative",
		})
	}

	const maxDebounceMs = 10000
	if c.Panel.WatchDebounceMs > maxDebounceMs {
		errors = append(errors, ValidationError{
			Field:   "panel.watch_debounce_ms",
			Value:   c.Panel.WatchDebounceMs,
			Message: fmt.Sprintf("exceeds maximum of %dms", maxDebounceMs),
		})
	}

	return errors
}

// validateWebHost validates the WebHostConfig
func (c *Config) validateWebHost() []ValidationError {
	var errors []ValidationError

	if _, _, err := net.SplitHostPort(c.WebHost.ListenAddr); err != nil {
		errors = append(errors, ValidationError{
			Field:   "webhost.listen_addr",
			Value:   c.WebHost.ListenAddr,
			Message: "must be host:port",
		})
	}

	return errors
}

// validateTUI validates the TUIConfig
func (c *Config) validateTUI() []ValidationError {
	var errors []ValidationError

	// 0 means use the default width.
	if c.TUI.SidebarWidth != 0 {
		if c.TUI.SidebarWidth < minSidebarWidth {
			errors = append(errors, ValidationError{
				Field:   "tui.sidebar_width",
				Value:   c.TUI.SidebarWidth,
				Message: fmt.Sprintf("must be at least %d columns", minSidebarWidth),
			})
		}
		if c.TUI.SidebarWidth > maxSidebarWidth {
			errors = append(errors, ValidationError{
				Field:   "tui.sidebar_width",
				Value:   c.TUI.SidebarWidth,
				Message: fmt.Sprintf("exceeds maximum of %d columns", maxSidebarWidth),
			})
		}
	}

	if c.TUI.RefreshIntervalMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "tui.refresh_interval_ms",
			Value:   c.TUI.RefreshIntervalMs,
			Message: "must be non-negative",
		})
	} else if c.TUI.RefreshIntervalMs > 0 && c.TUI.RefreshIntervalMs < 100 {
		errors = append(errors, ValidationError{
			Field:   "tui.refresh_interval_ms",
			Value:   c.TUI.RefreshIntervalMs,
			Message: "must be at least 100ms (or 0 to disable)",
		})
	}

	if c.TUI.Theme != "" && !slices.Contains(ValidThemes(), c.TUI.Theme) {
		errors = append(errors, ValidationError{
			Field:   "tui.theme",
			Value:   c.TUI.Theme,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidThemes(), ", ")),
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
