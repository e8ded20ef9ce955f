package main

import (
	"github.com/margo/pipeline-trigger/trigger"
	"github.com/margo/pipeline-trigger/trigger/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "pipetrigger",
	Short: "Commit a YAML payload to a staging repository and push it to a pipeline branch",
	Long: `pipetrigger clones the staging repository, writes the payload to <payload>.yaml,
commits it and pushes the result to the branch a downstream build pipeline polls.

Configuration is read from --config and PIPETRIGGER_* environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the configuration file")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(imageCmd)
}

// loadConfig reads the configuration and builds the logger it describes.
func loadConfig() (*types.Config, *zap.SugaredLogger, error) {
	cfg, err := types.NewConfigManager(configPath).LoadAndValidateConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := trigger.NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
