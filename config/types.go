package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Defaults applied by SetDefaults.
const (
	DefaultVersion             = "1.0"
	DefaultLogLevel            = "full"
	DefaultGracePeriod         = 5 * time.Second
	DefaultManagedBinary       = "claude"
	DefaultNestedMarker        = "CLAUDECODE"
	DefaultNonInteractiveFlag  = "-p"
	DefaultSkipPermissionsFlag = "--dangerously-skip-permissions"
)

// ManagedToolConfig describes the CLI tool wrapped by RunManagedTool.
type ManagedToolConfig struct {
	Binary              string `yaml:"binary,omitempty" toml:"binary,omitempty" json:"binary,omitempty" jsonschema:"description=Executable name of the managed CLI tool"`
	NestedMarker        string `yaml:"nested_marker,omitempty" toml:"nested_marker,omitempty" json:"nested_marker,omitempty" jsonschema:"description=Environment variable that marks a nested invocation; always stripped from child environments"`
	NonInteractiveFlag  string `yaml:"non_interactive_flag,omitempty" toml:"non_interactive_flag,omitempty" json:"non_interactive_flag,omitempty" jsonschema:"description=Flag that runs the tool non-interactively"`
	SkipPermissionsFlag string `yaml:"skip_permissions_flag,omitempty" toml:"skip_permissions_flag,omitempty" json:"skip_permissions_flag,omitempty" jsonschema:"description=Flag that bypasses the tool's permission prompts"`
}

// Config is the parsed spawn.yml.
type Config struct {
	Version      string            `yaml:"version,omitempty" toml:"version,omitempty" json:"version,omitempty" jsonschema:"description=Configuration version (e.g. '1.0')"`
	LogDir       string            `yaml:"log_dir,omitempty" toml:"log_dir,omitempty" json:"log_dir,omitempty" jsonschema:"description=Root directory for persisted session logs"`
	LogLevel     string            `yaml:"log_level,omitempty" toml:"log_level,omitempty" json:"log_level,omitempty" jsonschema:"enum=full,enum=reduced,description=full records output chunks; reduced records boundary entries only"`
	SaveLog      bool              `yaml:"save_log,omitempty" toml:"save_log,omitempty" json:"save_log,omitempty" jsonschema:"description=Persist a session log for every invocation"`
	EchoOutput   *bool             `yaml:"echo_output,omitempty" toml:"echo_output,omitempty" json:"echo_output,omitempty" jsonschema:"description=Echo child output to the console (default: true)"`
	LogToConsole bool              `yaml:"log_to_console,omitempty" toml:"log_to_console,omitempty" json:"log_to_console,omitempty" jsonschema:"description=Also echo output to the console when a session log is persisted"`
	Timeout      string            `yaml:"timeout,omitempty" toml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"description=Default execution timeout as a Go duration (e.g. '30s'); empty means none"`
	GracePeriod  string            `yaml:"grace_period,omitempty" toml:"grace_period,omitempty" json:"grace_period,omitempty" jsonschema:"description=Time between SIGTERM and SIGKILL after a timeout (default: 5s)"`
	ManagedTool  ManagedToolConfig `yaml:"managed_tool,omitempty" toml:"managed_tool,omitempty" json:"managed_tool,omitempty" jsonschema:"description=Managed CLI tool settings"`

	// Extensions captures all other top-level keys for extensibility.
	Extensions map[string]interface{} `yaml:",inline" toml:"-" json:"-" jsonschema:"-"`
}

// knownKeys lists the top-level keys decoded into Config fields.
var knownKeys = []string{
	"version", "log_dir", "log_level", "save_log", "echo_output",
	"log_to_console", "timeout", "grace_period", "managed_tool",
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.EchoOutput == nil {
		echo := true
		c.EchoOutput = &echo
	}
	if c.ManagedTool.Binary == "" {
		c.ManagedTool.Binary = DefaultManagedBinary
	}
	if c.ManagedTool.NestedMarker == "" {
		c.ManagedTool.NestedMarker = DefaultNestedMarker
	}
	if c.ManagedTool.NonInteractiveFlag == "" {
		c.ManagedTool.NonInteractiveFlag = DefaultNonInteractiveFlag
	}
	if c.ManagedTool.SkipPermissionsFlag == "" {
		c.ManagedTool.SkipPermissionsFlag = DefaultSkipPermissionsFlag
	}
}

// Validate performs semantic checks the schema cannot express.
func (c *Config) Validate() error {
	if c.LogLevel != "" && c.LogLevel != "full" && c.LogLevel != "reduced" {
		return fmt.Errorf("log_level must be 'full' or 'reduced', got %q", c.LogLevel)
	}
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
		}
		if d < 0 {
			return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
		}
	}
	if c.GracePeriod != "" {
		d, err := time.ParseDuration(c.GracePeriod)
		if err != nil {
			return fmt.Errorf("invalid grace_period %q: %w", c.GracePeriod, err)
		}
		if d <= 0 {
			return fmt.Errorf("grace_period must be positive, got %s", c.GracePeriod)
		}
	}
	return nil
}

// TimeoutDuration returns the default invocation timeout, zero for none.
func (c *Config) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// GracePeriodDuration returns the SIGTERM to SIGKILL escalation delay.
func (c *Config) GracePeriodDuration() time.Duration {
	if c.GracePeriod != "" {
		if d, err := time.ParseDuration(c.GracePeriod); err == nil && d > 0 {
			return d
		}
	}
	return DefaultGracePeriod
}

// EchoEnabled reports whether child output is echoed by default.
func (c *Config) EchoEnabled() bool {
	return c.EchoOutput == nil || *c.EchoOutput
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded spawn.yml into the provided target struct. The target must be a pointer.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// A missing key leaves target zero-valued.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
