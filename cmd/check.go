package cmd

import (
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"ticket-review-gate/handlers"
	"ticket-review-gate/models"
	"ticket-review-gate/services"
)

var (
	checkEventPath string
	checkPRURL     string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check one pull request and update the bot review",
	Long: `Check one pull request. By default the pull request is read from the
GitHub Actions event file (GITHUB_EVENT_PATH). Use --pr to check a pull
request by URL instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, _, cfg, err := setup(cmd)
		if err != nil {
			return err
		}

		gate, reviews, err := services.NewGateFromConfig(ctx, cfg)
		if err != nil {
			return err
		}

		var req models.Request
		if checkPRURL != "" {
			owner, repo, number, err := services.ParseRepoAndPRNumber(checkPRURL)
			if err != nil {
				return err
			}
			if req, err = reviews.FetchRequest(ctx, owner, repo, number); err != nil {
				return err
			}
		} else {
			path := checkEventPath
			if path == "" {
				path = cfg.EventPath
			}
			if req, err = handlers.LoadEventFile(path); err != nil {
				return err
			}
		}

		verdict, err := gate.Run(ctx, req)
		if err != nil {
			return err
		}

		clog.InfoContextf(ctx, "%s#%d: %s", req.FullName(), req.Number, verdict)
		if verbose {
			fmt.Fprintln(cmd.OutOrStdout(), verdict)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkEventPath, "event", "", "Path to the pull_request event payload (default $GITHUB_EVENT_PATH)")
	checkCmd.Flags().StringVar(&checkPRURL, "pr", "", "Pull request URL, e.g. https://github.com/owner/repo/pull/1")
}
