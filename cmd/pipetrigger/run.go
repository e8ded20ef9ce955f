package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kr/pretty"
	"github.com/margo/pipeline-trigger/trigger"
	"github.com/margo/pipeline-trigger/trigger/types"
	"github.com/spf13/cobra"
)

var (
	eventPath    string
	invocationID string
	outputFormat string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one invocation with the event read from --event",
	Example: `  pipetrigger run --config config.yaml --event event.json
  echo '{"Yaml": "service-a"}' | pipetrigger run --config config.yaml --event -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()

		data, err := readEvent(cmd.InOrStdin(), eventPath)
		if err != nil {
			return err
		}
		event, err := types.DecodeEvent(data)
		if err != nil {
			return types.NewTriggerError(types.TriggerStepDecodeEvent, err)
		}

		ctx := cmd.Context()
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}

		trig, err := trigger.NewFromConfig(ctx, cfg, log)
		if err != nil {
			return err
		}
		result, err := trig.Run(ctx, invocationID, event)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), result, outputFormat)
	},
}

func init() {
	runCmd.Flags().StringVarP(&eventPath, "event", "e", "-", "event file, JSON or YAML; - reads stdin")
	runCmd.Flags().StringVar(&invocationID, "invocation-id", "", "workspace name for this invocation (default: random UUID)")
	runCmd.Flags().StringVarP(&outputFormat, "output", "o", "json", "result format: json or pretty")
}

func readEvent(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read event from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event file: %w", err)
	}
	return data, nil
}

func printResult(w io.Writer, result *trigger.Result, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case "pretty":
		_, err := pretty.Fprintf(w, "%# v\n", result)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
