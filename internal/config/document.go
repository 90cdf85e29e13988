// Package config parses the declarative graph document and the
// runner's ambient settings (logging, metrics) via viper.
package config

import (
	"fmt"

	"github.com/elementio/elementio/internal/errs"
)

// Edge names one upstream (task id, send port) feeding a recv port.
type Edge struct {
	UpstreamID   int `mapstructure:"upstream_id" yaml:"upstream_id"`
	UpstreamPort int `mapstructure:"upstream_port" yaml:"upstream_port"`
}

// RecvWiring is the list of edges feeding one recv port (fan-in).
type RecvWiring []Edge

// TaskConfig is one graph node: `{id, element, conf, from}`.
type TaskConfig struct {
	ID      int          `mapstructure:"id" yaml:"id"`
	Element string       `mapstructure:"element" yaml:"element"`
	Conf    string       `mapstructure:"conf" yaml:"conf"`
	From    []RecvWiring `mapstructure:"from" yaml:"from"`
}

// LogConfig controls the slog + lumberjack logging sink. Output selects
// the writer: "stdout" (default) or "file", in which case File and the
// rotation fields configure a lumberjack.Logger.
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Output     string `mapstructure:"output" yaml:"output"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// MetricsConfig controls the optional Prometheus HTTP exporter.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// Document is the whole parsed configuration file: the task
// graph plus ambient runner settings (logging, metrics) alongside it.
type Document struct {
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Tasks   []TaskConfig  `mapstructure:"tasks" yaml:"tasks"`
}

// Validate checks the document shape that doesn't require the element
// registry (unique positive task ids, non-empty element names, a sane
// log level). Port-existence and type-compatibility checks happen in
// internal/graph, which alone has access to element descriptors.
func (d *Document) Validate() error {
	validLevels := map[string]bool{"error": true, "warn": true, "info": true, "debug": true, "trace": true}
	if d.Log.Level != "" && !validLevels[d.Log.Level] {
		return fmt.Errorf("%w: log.level %q must be one of error|warn|info|debug|trace", errs.ErrConfig, d.Log.Level)
	}
	if d.Log.Output != "" && d.Log.Output != "stdout" && d.Log.Output != "file" {
		return fmt.Errorf("%w: log.output %q must be stdout or file", errs.ErrConfig, d.Log.Output)
	}
	if d.Log.Output == "file" && d.Log.File == "" {
		return fmt.Errorf("%w: log.output is file but log.file is empty", errs.ErrConfig)
	}

	seen := make(map[int]bool, len(d.Tasks))
	for i, t := range d.Tasks {
		if t.ID <= 0 {
			return fmt.Errorf("%w: tasks[%d]: id must be a positive integer, got %d", errs.ErrConfig, i, t.ID)
		}
		if seen[t.ID] {
			return fmt.Errorf("%w: tasks[%d]: duplicate task id %d", errs.ErrConfig, i, t.ID)
		}
		seen[t.ID] = true
		if t.Element == "" {
			return fmt.Errorf("%w: task %d: element name is required", errs.ErrConfig, t.ID)
		}
	}
	return nil
}
