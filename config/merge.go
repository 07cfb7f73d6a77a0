package config

// mergeConfigs layers override on top of base. Non-zero override fields win;
// extensions merge key by key.
func mergeConfigs(base, override *Config) *Config {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := *base

	if override.Version != "" {
		merged.Version = override.Version
	}
	if override.LogDir != "" {
		merged.LogDir = override.LogDir
	}
	if override.LogLevel != "" {
		merged.LogLevel = override.LogLevel
	}
	if override.SaveLog {
		merged.SaveLog = true
	}
	if override.EchoOutput != nil {
		merged.EchoOutput = override.EchoOutput
	}
	if override.LogToConsole {
		merged.LogToConsole = true
	}
	if override.Timeout != "" {
		merged.Timeout = override.Timeout
	}
	if override.GracePeriod != "" {
		merged.GracePeriod = override.GracePeriod
	}
	merged.ManagedTool = mergeManagedTool(base.ManagedTool, override.ManagedTool)

	if len(base.Extensions) > 0 || len(override.Extensions) > 0 {
		merged.Extensions = make(map[string]interface{}, len(base.Extensions)+len(override.Extensions))
		for k, v := range base.Extensions {
			merged.Extensions[k] = v
		}
		for k, v := range override.Extensions {
			merged.Extensions[k] = v
		}
	}

	return &merged
}

func mergeManagedTool(base, override ManagedToolConfig) ManagedToolConfig {
	if override.Binary != "" {
		base.Binary = override.Binary
	}
	if override.NestedMarker != "" {
		base.NestedMarker = override.NestedMarker
	}
	if override.NonInteractiveFlag != "" {
		base.NonInteractiveFlag = override.NonInteractiveFlag
	}
	if override.SkipPermissionsFlag != "" {
		base.SkipPermissionsFlag = override.SkipPermissionsFlag
	}
	return base
}
