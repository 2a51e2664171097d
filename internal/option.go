package internal

import "log/slog"

// Option is a functional option for configuring the application.
type Option func(*options)

type options struct {
	config     *Config
	configPath string
	dir        string
	logger     *slog.Logger
}

// WithConfig injects a fully built configuration, skipping discovery.
func WithConfig(cfg *Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithConfigPath points discovery at an explicit configuration file.
func WithConfigPath(path string) Option {
	return func(o *options) {
		o.configPath = path
	}
}

// WithWorkingDir anchors configuration discovery and root resolution
// somewhere other than the process working directory.
func WithWorkingDir(dir string) Option {
	return func(o *options) {
		o.dir = dir
	}
}

// WithLogger overrides the default stderr JSON logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
