package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelsmith/internal/config"
	"reelsmith/internal/preflight"
	"reelsmith/internal/services/prediction"
	"reelsmith/internal/services/scriptgen"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check credentials, tools, directories and API reachability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure output directories: %w", err)
			}

			var remotes []preflight.Remote
			if !offline {
				remotes = doctorRemotes(cfg)
			}
			results := preflight.RunAll(cmd.Context(), cfg, remotes...)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, line := range preflightLines(results, colorize) {
				fmt.Fprintln(out, line)
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d preflight check(s) failed", len(failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the API reachability checks")
	return cmd
}

func doctorRemotes(cfg *config.Config) []preflight.Remote {
	return []preflight.Remote{
		{Name: "OpenAI API", Check: scriptgen.NewFromConfig(cfg).HealthCheck},
		{Name: "Replicate API", Check: prediction.NewClientFromConfig(cfg).HealthCheck},
	}
}
