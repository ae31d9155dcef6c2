package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"emodccdl/internal/ccdl"
	"emodccdl/internal/config"
	"emodccdl/internal/decode"
	"emodccdl/internal/intervention"
)

var (
	decodeCampaign  string
	decodeSimConfig string
	decodeColor     bool
)

// decodeCmd prints a structured campaign as CCDL
var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a campaign file into CCDL lines",
	Long: `Reads a campaign JSON file and prints one CCDL line per event.

Signal names are relabelled through parameters.Event_Map of the simulation
config given with --config (or decode.sim_config in the tool config).
Events that cannot be decoded are reported on stderr and skipped.

Example:
  ccdl decode --campaign campaign.json --config config.json`,
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().StringVar(&decodeCampaign, "campaign", "", "Campaign JSON file (required)")
	decodeCmd.Flags().StringVar(&decodeSimConfig, "config", "", "Simulation config supplying Event_Map")
	decodeCmd.Flags().BoolVar(&decodeColor, "color", false, "Highlight signals broadcast by HIVMuxer")
	_ = decodeCmd.MarkFlagRequired("campaign")
}

func runDecode(cmd *cobra.Command, args []string) error {
	if decodeCampaign == "" {
		return fmt.Errorf("--campaign is required")
	}
	camp, err := decode.LoadFile(decodeCampaign)
	if err != nil {
		return err
	}

	simPath := decodeSimConfig
	if simPath == "" {
		simPath = cfg.Decode.SimConfig
	}
	var aliases map[string]string
	if simPath != "" {
		if aliases, err = config.LoadEventMap(simPath); err != nil {
			return err
		}
	}

	var opts []intervention.Option
	if decodeColor || cfg.Decode.Color {
		opts = append(opts, intervention.WithHighlight(intervention.TerminalHighlight))
	}
	dec := decode.New(intervention.New(aliases, opts...))

	out := cmd.OutOrStdout()
	var diags ccdl.Diagnostics
	decoded := 0
	for res := range dec.Decode(camp) {
		diags = append(diags, res.Diagnostics...)
		if res.Err != nil {
			if d, ok := ccdl.AsDiagnostic(res.Err); ok {
				diags = append(diags, d)
			} else {
				logger.Error("event failed", zap.Int("index", res.Index), zap.Error(res.Err))
			}
			continue
		}
		fmt.Fprintln(out, res.Line)
		decoded++
	}
	reportDiagnostics(diags)

	logger.Info("Decoded campaign",
		zap.String("campaign", decodeCampaign),
		zap.Int("events", len(camp.Events)),
		zap.Int("lines", decoded),
		zap.Int("failed", len(diags.Errors())))
	return nil
}
