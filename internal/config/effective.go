package config

import (
	"fmt"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildEffectiveConfig applies raw on top of DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = *raw.XAuthority
	}
	if raw.StrictStatus != nil {
		cfg.StrictStatus = *raw.StrictStatus
	}
	if raw.SocketPath != nil {
		cfg.SocketPath = *raw.SocketPath
	}

	if raw.Wait != nil {
		cfg.Wait.PollIntervalMS = derefInt(raw.Wait.PollIntervalMS, cfg.Wait.PollIntervalMS)
		cfg.Wait.MaxTries = derefInt(raw.Wait.MaxTries, cfg.Wait.MaxTries)
	}

	if raw.Log != nil {
		l := raw.Log
		cfg.Log.Level = derefString(l.Level, cfg.Log.Level)
		cfg.Log.Format = derefString(l.Format, cfg.Log.Format)
		cfg.Log.File = derefString(l.File, cfg.Log.File)
		cfg.Log.MaxSizeMB = derefInt(l.MaxSizeMB, cfg.Log.MaxSizeMB)
		cfg.Log.MaxBackups = derefInt(l.MaxBackups, cfg.Log.MaxBackups)
		cfg.Log.MaxAgeDays = derefInt(l.MaxAgeDays, cfg.Log.MaxAgeDays)
		cfg.Log.Compress = derefBool(l.Compress, cfg.Log.Compress)
	}
	if cfg.Log.Level == "warning" {
		cfg.Log.Level = "warn"
	}

	if raw.ActionLog != nil {
		a := raw.ActionLog
		cfg.ActionLog.Enabled = derefBool(a.Enabled, cfg.ActionLog.Enabled)
		cfg.ActionLog.File = derefString(a.File, cfg.ActionLog.File)
		cfg.ActionLog.MaxSizeMB = derefInt(a.MaxSizeMB, cfg.ActionLog.MaxSizeMB)
		cfg.ActionLog.MaxFiles = derefInt(a.MaxFiles, cfg.ActionLog.MaxFiles)
		cfg.ActionLog.IncludeKeys = derefBool(a.IncludeKeys, cfg.ActionLog.IncludeKeys)
	}

	return cfg, nil
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func derefString(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func derefBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
