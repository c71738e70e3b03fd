package cmd

import (
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"ticket-review-gate/handlers"
	"ticket-review-gate/services"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a webhook server that checks pull requests on every update",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, logger, cfg, err := setup(cmd)
		if err != nil {
			return err
		}

		gate, _, err := services.NewGateFromConfig(ctx, cfg)
		if err != nil {
			return err
		}

		port := cfg.Port
		if servePort != 0 {
			port = servePort
		}
		if cfg.WebhookSecret == "" {
			clog.WarnContextf(ctx, "GITHUB_WEBHOOK_SECRET is not set, webhook signatures are not verified")
		}

		gin.SetMode(gin.ReleaseMode)
		r := handlers.NewRouter(gate, cfg.WebhookSecret, logger)

		clog.InfoContextf(ctx, "listening on :%d", port)
		return r.Run(fmt.Sprintf(":%d", port))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default $PORT or 8080)")
}
