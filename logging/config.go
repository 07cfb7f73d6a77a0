package logging

// Config is the `logging` extension of spawn.yml.
//
//	logging:
//	  level: info
//	  components:
//	    spawn.runner: debug
//	  file:
//	    enabled: true
//	  format:
//	    preset: simple
type Config struct {
	// Level applies to every component without an entry in Components.
	// GROVE_LOG_LEVEL takes precedence over both.
	Level string `yaml:"level"`
	// Components maps a component name (spawn.runner, spawn.sessionlog, ...) to its level.
	Components map[string]string `yaml:"components"`
	// ReportCaller adds file and line; GROVE_LOG_CALLER=true does the same.
	ReportCaller bool           `yaml:"report_caller"`
	File         FileSinkConfig `yaml:"file"`
	Format       FormatConfig   `yaml:"format"`
}

// levelFor returns the configured level name for component.
func (c Config) levelFor(component string) string {
	if lvl, ok := c.Components[component]; ok && lvl != "" {
		return lvl
	}
	return c.Level
}

// FileSinkConfig mirrors structured logs into a file. An empty Path means
// <state dir>/spawn/logs/<component>-<date>.log.
type FileSinkConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// FormatConfig selects the log line layout.
type FormatConfig struct {
	// Preset is one of default, simple or json.
	Preset           string `yaml:"preset"`
	DisableTimestamp bool   `yaml:"disable_timestamp"`
	DisableComponent bool   `yaml:"disable_component"`
	// StructuredToStderr is auto, always or never.
	StructuredToStderr string `yaml:"structured_to_stderr"`
}
