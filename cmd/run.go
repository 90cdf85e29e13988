package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/elementio/elementio/internal/config"
	"github.com/elementio/elementio/internal/errs"
	"github.com/elementio/elementio/internal/graph"
	"github.com/elementio/elementio/internal/log"
	"github.com/elementio/elementio/internal/metricsobs"
	"github.com/elementio/elementio/internal/supervisor"
	"github.com/elementio/elementio/pkg/element"
	"github.com/elementio/elementio/pkg/pluginloader"
)

// run loads plugins, parses the graph document, builds and executes the
// graph, and exits the process with the resulting exit code. It also honors
// --list-elements, which short-circuits before any config is read.
func run() error {
	if err := loadPlugins(); err != nil {
		exitWithError("loading plugins", err)
	}

	if listElements {
		printElements()
		os.Exit(errs.ExitOK)
	}

	if configFile == "" {
		exitWithError("--config is required", fmt.Errorf("%w: --config is required", errs.ErrConfig))
	}

	doc, err := config.Load(configFile)
	if err != nil {
		exitWithError("loading config", err)
	}

	if err := log.Init(doc.Log); err != nil {
		exitWithError("initializing logging", err)
	}

	var metricsServer *metricsobs.Server
	if doc.Metrics.Enabled {
		metricsServer = metricsobs.NewServer(doc.Metrics.Addr, "")
		if err := metricsServer.Start(context.Background()); err != nil {
			slog.Error("failed to start metrics server", "error", err)
		}
	}

	g, err := graph.Build(doc)
	if err != nil {
		exitWithError("building graph", err)
	}

	slog.Info("graph built", "tasks", len(g.Nodes))
	code, runErr := supervisor.Run(g)
	if runErr != nil {
		slog.Error("graph run failed", "error", runErr)
	}

	if metricsServer != nil {
		if err := metricsServer.Stop(context.Background()); err != nil {
			slog.Warn("failed to stop metrics server", "error", err)
		}
	}

	os.Exit(code)
	return nil
}

// loadPlugins loads every --plugin-dir, then every --plugin-file, each
// in the order given on the command line, registering their elements
// alongside the blank-imported built-ins.
func loadPlugins() error {
	for _, dir := range pluginDirs {
		loaded, err := pluginloader.NewLoader(dir).LoadDir()
		if err != nil {
			return err
		}
		for _, l := range loaded {
			slog.Info("loaded plugin", "file", l.SourceFile, "name", l.Name, "version", l.Version)
		}
	}
	for _, file := range pluginFiles {
		l := pluginloader.NewLoader("")
		loaded, ok, err := l.LoadFile(file)
		if err != nil {
			return err
		}
		if !ok {
			slog.Warn("skipped incompatible plugin", "file", file)
			continue
		}
		slog.Info("loaded plugin", "file", loaded.SourceFile, "name", loaded.Name, "version", loaded.Version)
	}
	return nil
}

func printElements() {
	for _, name := range element.List() {
		d, _ := element.Get(name)
		fmt.Printf("%-16s recv=%d send=%d  %s\n", name, d.RecvCount(), d.SendCount(), d.Description)
		if len(d.MetadataIDs) > 0 {
			fmt.Printf("  metadata: %v\n", d.MetadataIDs)
		}
		for i, p := range d.RecvPorts {
			fmt.Printf("  recv[%d]: %v\n", i, portTypes(p))
		}
		for i, p := range d.SendPorts {
			fmt.Printf("  send[%d]: %v\n", i, portTypes(p))
		}
	}
}

// portTypes renders a PortSpec's accepted types, or "*" for a wildcard
// port (an empty Types list, per element.PortSpec.Accepts).
func portTypes(p element.PortSpec) []string {
	if len(p.Types) == 0 {
		return []string{"*"}
	}
	return p.Types
}
