// Package logging constructs the process-wide *zap.Logger, passed
// explicitly into internal/server and internal/cluster rather than held
// as a package-level singleton.
package logging

import "go.uber.org/zap"

// New builds a logger for level ("debug", "info", "warn", "error").
// dev selects human-readable console encoding (the --dev flag);
// production builds use JSON encoding suited to log aggregation.
func New(level string, dev bool) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	if dev {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = lvl

	return cfg.Build()
}
