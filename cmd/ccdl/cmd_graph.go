package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"emodccdl/internal/depgraph"
	"emodccdl/internal/encode"
	"emodccdl/internal/store"
	"emodccdl/internal/watch"
)

var (
	graphFile      string
	graphWhitelist []string
	graphFormat    string
	graphOut       string
	graphWatch     bool
	graphDB        string
)

// graphCmd builds the signal dependency graph of a CCDL file
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Build the signal dependency graph of a CCDL file",
	Long: `Links every event that broadcasts a signal to every event that listens for
it, when their property restrictions agree and their active days overlap.

The graph is written as Graphviz DOT (render with "dot -Tpng") or JSON. With
--watch the graph is rebuilt whenever the CCDL file changes.

Example:
  ccdl graph --ccdl campaign.ccdl --whitelist Tested --out pathway.dot`,
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().StringVar(&graphFile, "ccdl", "", "CCDL file (required)")
	graphCmd.Flags().StringSliceVar(&graphWhitelist, "whitelist", nil, "Only keep edges for these signals")
	graphCmd.Flags().StringVar(&graphFormat, "format", "", "Output format: dot or json (default from config)")
	graphCmd.Flags().StringVar(&graphOut, "out", "", "Write the graph to this file instead of stdout")
	graphCmd.Flags().BoolVar(&graphWatch, "watch", false, "Rebuild when the CCDL file changes")
	graphCmd.Flags().StringVar(&graphDB, "db", "", "SQLite database to record each build in")
	_ = graphCmd.MarkFlagRequired("ccdl")
}

func runGraph(cmd *cobra.Command, args []string) error {
	if graphFile == "" {
		return fmt.Errorf("--ccdl is required")
	}
	opts, err := graphOptions()
	if err != nil {
		return err
	}

	var sink *store.Store
	dbPath := graphDB
	if dbPath == "" {
		dbPath = cfg.Store.Database
	}
	if dbPath != "" {
		if sink, err = store.Open(dbPath); err != nil {
			return err
		}
		defer sink.Close()
	}

	build := func(ctx context.Context, path string) error {
		return buildGraph(ctx, path, opts, sink, cmd.OutOrStdout())
	}

	ctx, cancel := signalContext(commandContext(cmd))
	defer cancel()
	if err := build(ctx, graphFile); err != nil {
		return err
	}
	if !graphWatch {
		return nil
	}

	w, err := watch.New(graphFile, cfg.GetWatchDebounce(), build)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return err
	}
	logger.Info("Watching for changes", zap.String("ccdl", graphFile))
	<-ctx.Done()
	w.Stop()
	return nil
}

func graphOptions() (depgraph.Options, error) {
	styler, err := cfg.Styler()
	if err != nil {
		return depgraph.Options{}, err
	}
	opts := depgraph.Options{Styler: styler, Whitelist: graphWhitelist}
	if len(opts.Whitelist) == 0 {
		opts.Whitelist = cfg.Graph.Whitelist
	}
	return opts, nil
}

func buildGraph(ctx context.Context, path string, opts depgraph.Options, sink *store.Store, stdout io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open CCDL: %w", err)
	}
	lines, err := encode.ReadLines(f)
	f.Close()
	if err != nil {
		return err
	}

	g, err := depgraph.Build(ctx, lines, opts)
	if err != nil {
		return err
	}
	reportDiagnostics(g.Diagnostics)

	format := graphFormat
	if format == "" {
		format = cfg.Graph.Format
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := writeGraph(g, format, name, stdout); err != nil {
		return err
	}
	logger.Info("Built graph",
		zap.String("ccdl", path),
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("edges", len(g.Edges)),
		zap.Strings("signals", g.Signals()))

	if sink != nil {
		id, err := sink.SaveGraph(ctx, path, g)
		if err != nil {
			return err
		}
		logger.Info("Stored graph run", zap.String("run", id.String()))
	}
	return nil
}

func writeGraph(g *depgraph.Graph, format, name string, stdout io.Writer) error {
	if graphOut == "" {
		return g.Write(stdout, format, name)
	}
	f, err := os.Create(graphOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", graphOut, err)
	}
	if err := g.Write(f, format, name); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
