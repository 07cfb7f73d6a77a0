package runner

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/grovetools/spawn/sessionlog"
)

// Options are the per-call settings accepted by RunCommand. Unset pointer
// fields and a zero Timeout fall back to the Runner's configuration.
type Options struct {
	Cwd      string            `mapstructure:"cwd"`
	Env      map[string]string `mapstructure:"env"`
	Detached bool              `mapstructure:"detached"`
	// OutputMode is also accepted under the key "stdio".
	OutputMode OutputMode    `mapstructure:"outputMode"`
	Timeout    time.Duration `mapstructure:"timeout"`

	Logging      *bool            `mapstructure:"logging"`
	SaveLog      *bool            `mapstructure:"saveLog"`
	LogDir       string           `mapstructure:"logDir"`
	LogLevel     sessionlog.Level `mapstructure:"logLevel"`
	LogToConsole *bool            `mapstructure:"logToConsole"`
}

// ToolOptions extend Options for the managed tool wrappers.
type ToolOptions struct {
	Options `mapstructure:",squash"`

	// FireAndForget runs the tool detached with output ignored.
	FireAndForget bool `mapstructure:"fireAndForget"`
	// SkipPermissions passes the permission-bypass flag. Defaults to true.
	SkipPermissions *bool `mapstructure:"skipPermissions"`
}

// OptionsFromMap decodes an option map using the recognized keys. Integer
// timeouts are milliseconds; string timeouts are Go durations.
func OptionsFromMap(m map[string]interface{}) (Options, error) {
	var opts Options
	err := decodeOptions(m, &opts)
	return opts, err
}

// ToolOptionsFromMap is OptionsFromMap plus fireAndForget and skipPermissions.
func ToolOptionsFromMap(m map[string]interface{}) (ToolOptions, error) {
	var opts ToolOptions
	err := decodeOptions(m, &opts)
	return opts, err
}

func decodeOptions(m map[string]interface{}, target interface{}) error {
	input := make(map[string]interface{}, len(m))
	for k, v := range m {
		input[k] = v
	}
	if stdio, ok := input["stdio"]; ok {
		if _, set := input["outputMode"]; !set {
			input["outputMode"] = stdio
		}
		delete(input, "stdio")
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			timeoutHook,
			outputModeHook,
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create option decoder: %w", err)
	}

	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("failed to decode options: %w", err)
	}
	return nil
}

var (
	durationType   = reflect.TypeOf(time.Duration(0))
	outputModeType = reflect.TypeOf(OutputMode(0))
)

// timeoutHook reads numbers as milliseconds and strings as durations.
func timeoutHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != durationType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", v, err)
		}
		return d, nil
	case time.Duration:
		return v, nil
	}

	rv := reflect.ValueOf(data)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return time.Duration(rv.Int()) * time.Millisecond, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return time.Duration(rv.Uint()) * time.Millisecond, nil
	case reflect.Float32, reflect.Float64:
		return time.Duration(rv.Float() * float64(time.Millisecond)), nil
	}
	return data, nil
}

func outputModeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != outputModeType {
		return data, nil
	}
	if s, ok := data.(string); ok {
		return ParseOutputMode(s)
	}
	return data, nil
}
