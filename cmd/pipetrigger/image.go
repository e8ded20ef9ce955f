package main

import (
	"fmt"

	"github.com/margo/pipeline-trigger/shared-lib/oci"
	"github.com/margo/pipeline-trigger/trigger"
	"github.com/spf13/cobra"
)

var imageCmd = &cobra.Command{
	Use:   "image [reference]",
	Short: "Show the digest the pipeline's output image currently resolves to",
	Long: `image resolves registry.image (or the reference given as argument) and prints
its digest, so a new build can be told apart from the previous one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()

		reference := cfg.Registry.Image
		if len(args) == 1 {
			reference = args[0]
		}
		if reference == "" {
			return fmt.Errorf("no image reference: set registry.image or pass one as argument")
		}

		ctx := cmd.Context()
		resolver, err := trigger.NewResolver(ctx, cfg.Registry.Username, cfg.Registry.Password)
		if err != nil {
			return err
		}
		username, err := resolver.Resolve(ctx, cfg.Registry.Username)
		if err != nil {
			return err
		}
		password, err := resolver.Resolve(ctx, cfg.Registry.Password)
		if err != nil {
			return err
		}

		client, err := oci.NewClient(&oci.Config{
			Username: username,
			Password: password,
			Insecure: cfg.Registry.Insecure,
		})
		if err != nil {
			return err
		}
		status, err := client.ImageStatus(ctx, reference)
		if err != nil {
			return err
		}

		log.Debugw("Resolved image", "reference", status.Reference, "digest", status.Digest, "mediaType", status.MediaType)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s@%s\n", status.Reference, status.Digest)
		if !status.Created.IsZero() {
			fmt.Fprintf(out, "created %s\n", status.Created.UTC().Format("2006-01-02T15:04:05Z"))
		}
		return nil
	},
}
