package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reelsmith/internal/config"
	"reelsmith/internal/deps"
	"reelsmith/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var prompt string
	var parallel bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a narrated video from a prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if missing := cfg.MissingCredentials(); len(missing) > 0 {
				fmt.Fprintf(out, "Warning: missing credentials (%s).\n", strings.Join(missing, ", "))
				fmt.Fprintf(out, "Set %s and %s in the environment or in a .env file, then run again.\n",
					config.EnvOpenAIKey, config.EnvReplicateKey)
				return nil
			}

			// An empty prompt is forwarded as-is; the model decides what to make of it.
			text := strings.TrimSpace(prompt)
			if !cmd.Flags().Changed("prompt") {
				text, err = readPrompt(cmd.InOrStdin(), out)
				if err != nil {
					return err
				}
			}

			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure output directories: %w", err)
			}
			if missing := deps.Missing(deps.CheckBinaries(deps.Requirements(cfg))); len(missing) > 0 {
				names := make([]string, 0, len(missing))
				for _, status := range missing {
					names = append(names, fmt.Sprintf("%s (%s)", status.Name, status.Detail))
				}
				return fmt.Errorf("missing required tools: %s", strings.Join(names, ", "))
			}
			if cmd.Flags().Changed("parallel") {
				cfg.Pipeline.ParallelSynthesis = parallel
			}

			logger, err := ctx.newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			orchestrator, closeFn, err := pipeline.FromConfig(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			fmt.Fprintln(out, "Generating video. This usually takes a few minutes.")
			result := orchestrator.Run(cmd.Context(), text)
			return printRunResult(out, result)
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Describe the video; prompts interactively when omitted")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Synthesize narration and footage concurrently")
	return cmd
}

func readPrompt(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Describe the video you want: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func printRunResult(out io.Writer, result pipeline.Result) error {
	rows := artifactRows(result)
	if !result.Success {
		if errors.Is(result.Err, context.Canceled) {
			fmt.Fprintln(out, result.Message)
			return result.Err
		}
		if len(rows) > 0 {
			fmt.Fprintln(out, "Files kept from completed stages:")
			fmt.Fprintln(out, renderTable([]column{{Header: "Artifact"}, {Header: "Path"}}, rows))
		}
		return fmt.Errorf("error: %s", result.Message)
	}

	fmt.Fprintf(out, "Video ready in %s\n\n", result.Duration.Round(time.Second))
	if result.Preview != "" {
		fmt.Fprintln(out, "Script preview:")
		fmt.Fprintln(out, result.Preview)
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, renderTable([]column{{Header: "Artifact"}, {Header: "Path"}}, rows))
	return nil
}

func artifactRows(result pipeline.Result) [][]string {
	var rows [][]string
	for _, entry := range []struct {
		label string
		path  string
	}{
		{"Script", result.Paths.Script},
		{"Narration", result.Paths.Audio},
		{"Silent video", result.Paths.SilentVideo},
		{"Final video", result.Paths.Final},
	} {
		if entry.path != "" {
			rows = append(rows, []string{entry.label, entry.path})
		}
	}
	return rows
}
