package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"emodccdl/internal/encode"
	"emodccdl/internal/store"
)

// Record output formats.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	encodeFile   string
	encodeFormat string
	encodeDB     string
)

// encodeCmd turns CCDL text into parameter records
var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode CCDL lines into parameter records",
	Long: `Reads a CCDL file and prints one sparse parameter record per event line.

Preset lines (name=literal, where the name mentions "map") are collected and
visible to later lines. Lines that cannot be encoded are reported on stderr and
skipped. With --db the run is also stored in SQLite.

Example:
  ccdl encode --encode campaign.ccdl --format yaml`,
	RunE: runEncode,
}

func init() {
	encodeCmd.Flags().StringVar(&encodeFile, "encode", "", "CCDL file to encode (required)")
	encodeCmd.Flags().StringVar(&encodeFormat, "format", formatJSON, "Output format: json or yaml")
	encodeCmd.Flags().StringVar(&encodeDB, "db", "", "SQLite database to record the run in")
	_ = encodeCmd.MarkFlagRequired("encode")
}

func runEncode(cmd *cobra.Command, args []string) error {
	if encodeFile == "" {
		return fmt.Errorf("--encode is required")
	}
	f, err := os.Open(encodeFile)
	if err != nil {
		return fmt.Errorf("failed to open CCDL: %w", err)
	}
	defer f.Close()

	out, err := encode.EncodeReader(f)
	if err != nil {
		return err
	}
	reportDiagnostics(out.Diagnostics)

	if err := writeRecords(cmd.OutOrStdout(), encodeFormat, out.Maps()); err != nil {
		return err
	}
	logger.Info("Encoded CCDL",
		zap.String("file", encodeFile),
		zap.Int("records", len(out.Records)),
		zap.Int("presets", len(out.Presets)),
		zap.Int("diagnostics", len(out.Diagnostics)))

	dbPath := encodeDB
	if dbPath == "" {
		dbPath = cfg.Store.Database
	}
	if dbPath == "" {
		return nil
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()
	id, err := s.SaveEncode(context.Background(), encodeFile, out)
	if err != nil {
		return err
	}
	logger.Info("Stored encode run", zap.String("run", id.String()), zap.String("db", dbPath))
	return nil
}

func writeRecords(w io.Writer, format string, records []map[string]any) error {
	switch format {
	case formatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("failed to write YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown record format %q (valid: json, yaml)", format)
	}
}
