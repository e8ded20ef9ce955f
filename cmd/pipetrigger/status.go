package main

import (
	"fmt"
	"strings"

	"github.com/margo/pipeline-trigger/shared-lib/git"
	"github.com/margo/pipeline-trigger/trigger"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the branch heads and whether the pipeline branch is ahead of staging",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx := cmd.Context()
		resolver, err := trigger.NewResolver(ctx, cfg.Credentials.Username, cfg.Credentials.Password)
		if err != nil {
			return err
		}
		auth, err := trigger.ResolveAuth(ctx, cfg.Credentials, resolver)
		if err != nil {
			return err
		}

		stagingHead, err := git.RemoteBranchHash(ctx, cfg.Staging.URL, cfg.Staging.Branch, auth)
		if err != nil {
			return err
		}
		targetHead, err := git.RemoteBranchHash(ctx, cfg.Target.URL, cfg.Target.Branch, auth)
		if err != nil {
			return err
		}

		_, ahead, err := git.CheckForNewCommits(ctx,
			git.BranchRef{URL: cfg.Staging.URL, Branch: cfg.Staging.Branch, Auth: auth},
			git.BranchRef{URL: cfg.Target.URL, Branch: cfg.Target.Branch, Auth: auth},
		)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "staging %-10s %s\n", cfg.Staging.Branch, orMissing(stagingHead))
		fmt.Fprintf(out, "target  %-10s %s\n", cfg.Target.Branch, orMissing(targetHead))
		fmt.Fprintf(out, "%s has %d commit(s) not on %s\n", cfg.Target.Branch, len(ahead), cfg.Staging.Branch)
		for _, commit := range ahead {
			fmt.Fprintf(out, "  %s %s\n", commit.Hash, strings.TrimSpace(commit.Message))
		}
		return nil
	},
}

func orMissing(hash string) string {
	if hash == "" {
		return "(missing)"
	}
	return hash
}
