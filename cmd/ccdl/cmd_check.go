package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"emodccdl/internal/regression"
)

var checkKeepGoing bool

// checkCmd runs a regression battery
var checkCmd = &cobra.Command{
	Use:   "check [battery.yaml]",
	Short: "Run a regression battery of decode, encode and graph cases",
	Long: `Runs every task of a YAML battery and reports PASS or FAIL per task.
Paths inside the battery are relative to the battery file.

Example:
  ccdl check testdata/battery.yaml --keep-going`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkKeepGoing, "keep-going", false, "Run every task even after a failure")
}

func runCheck(cmd *cobra.Command, args []string) error {
	b, err := regression.LoadBattery(args[0])
	if err != nil {
		return err
	}
	if checkKeepGoing {
		b.KeepGoing = true
	}

	results, err := regression.RunBattery(commandContext(cmd), b)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		if r.Success {
			fmt.Fprintf(out, "PASS %s (%dms)\n", r.TaskID, r.DurationMs)
			continue
		}
		failed++
		fmt.Fprintf(out, "FAIL %s (%dms)\n%s\n", r.TaskID, r.DurationMs, r.Error)
	}
	logger.Info("Battery finished",
		zap.String("battery", args[0]),
		zap.Int("run", len(results)),
		zap.Int("tasks", len(b.Tasks)),
		zap.Int("failed", failed))

	if failed > 0 {
		return fmt.Errorf("%d of %d tasks failed", failed, len(results))
	}
	return nil
}
