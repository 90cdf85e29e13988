// Package pluginloader dynamically loads element plugins from .so files
// built with the standard library "plugin" package, in addition
// to elements registered in-process via blank import.
package pluginloader

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"plugin"
	"sort"

	"github.com/elementio/elementio/internal/errs"
	"github.com/elementio/elementio/internal/metricsobs"
	"github.com/elementio/elementio/pkg/element"
)

// FrameworkVersion is this binary's own version, checked against each
// plugin's declared requirement.
const FrameworkVersion = "1.0.0"

// InitFunc is the signature every plugin .so must export as "Init".
type InitFunc func(*Registrar) error

// Loader loads every *.so in a directory, in deterministic (sorted)
// filename order, registering each plugin's elements into the global
// element registry on success.
type Loader struct {
	dir              string
	frameworkVersion string
}

// NewLoader returns a Loader that reads plugin files from dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir, frameworkVersion: FrameworkVersion}
}

// LoadDir loads every plugin file in the loader's directory and
// returns one Loaded record per plugin actually registered, sorted by
// filename. A plugin whose declared framework requirement is
// incompatible is skipped and logged, not treated as a load failure
//; every other failure (missing
// symbol, wrong signature, corrupt library, duplicate element) aborts
// the whole call, since it would leave the element registry in an
// ambiguous state for the graph builder.
func (l *Loader) LoadDir() ([]Loaded, error) {
	files, err := filepath.Glob(filepath.Join(l.dir, "*.so"))
	if err != nil {
		return nil, fmt.Errorf("%w: globbing %s: %v", errs.ErrPluginLoad, l.dir, err)
	}
	sort.Strings(files)

	loaded := make([]Loaded, 0, len(files))
	for _, file := range files {
		l2, skipped, err := l.loadFile(file)
		if err != nil {
			return nil, err
		}
		if skipped {
			continue
		}
		loaded = append(loaded, l2)
	}
	return loaded, nil
}

// LoadFile loads a single plugin file; exported for the --plugin-file
// CLI flag which loads one explicit .so instead of scanning a
// directory. ok is false if the plugin was skipped for an
// incompatible framework version.
func (l *Loader) LoadFile(file string) (loaded Loaded, ok bool, err error) {
	loaded, skipped, err := l.loadFile(file)
	return loaded, !skipped, err
}

func (l *Loader) loadFile(file string) (_ Loaded, skipped bool, _ error) {
	p, err := plugin.Open(file)
	if err != nil {
		metricsobs.PluginLoadsTotal.WithLabelValues("error").Inc()
		return Loaded{}, false, fmt.Errorf("%w: open %s: %v", errs.ErrPluginLoad, file, err)
	}

	sym, err := p.Lookup("Init")
	if err != nil {
		metricsobs.PluginLoadsTotal.WithLabelValues("error").Inc()
		return Loaded{}, false, fmt.Errorf("%w: %s: no exported Init symbol: %v", errs.ErrPluginLoad, file, err)
	}
	initFn, ok := sym.(func(*Registrar) error)
	if !ok {
		metricsobs.PluginLoadsTotal.WithLabelValues("error").Inc()
		return Loaded{}, false, fmt.Errorf("%w: %s: Init has wrong signature, want func(*pluginloader.Registrar) error", errs.ErrPluginLoad, file)
	}

	reg := &Registrar{}
	if err := initFn(reg); err != nil {
		metricsobs.PluginLoadsTotal.WithLabelValues("error").Inc()
		return Loaded{}, false, fmt.Errorf("%w: %s: Init failed: %v", errs.ErrPluginLoad, file, err)
	}

	if reg.name == "" {
		metricsobs.PluginLoadsTotal.WithLabelValues("error").Inc()
		return Loaded{}, false, fmt.Errorf("%w: %s: plugin did not call SetName", errs.ErrPluginLoad, file)
	}
	if reg.requiredFramework == "" {
		metricsobs.PluginLoadsTotal.WithLabelValues("error").Inc()
		return Loaded{}, false, fmt.Errorf("%w: %s: plugin did not call RequireFramework", errs.ErrPluginLoad, file)
	}
	if err := CheckCompatible(reg.requiredFramework, l.frameworkVersion); err != nil {
		metricsobs.PluginLoadsTotal.WithLabelValues("incompatible").Inc()
		slog.Warn("skipping plugin: framework version incompatible",
			"file", file, "plugin", reg.name, "error", err)
		return Loaded{}, true, nil
	}
	if len(reg.elements) == 0 {
		metricsobs.PluginLoadsTotal.WithLabelValues("error").Inc()
		return Loaded{}, false, fmt.Errorf("%w: %s: plugin registered no elements", errs.ErrPluginLoad, file)
	}

	names := make([]string, 0, len(reg.elements))
	for _, d := range reg.elements {
		element.Register(d)
		names = append(names, d.Name)
	}
	sort.Strings(names)

	metricsobs.PluginLoadsTotal.WithLabelValues("ok").Inc()
	return Loaded{
		Name:         reg.name,
		Version:      reg.version,
		Authors:      reg.authors,
		SourceFile:   file,
		ElementNames: names,
	}, false, nil
}
