package cli

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"defect-inspector/internal/api/rest"
	"defect-inspector/internal/api/telegram"
	"defect-inspector/internal/domain"
	"defect-inspector/internal/infrastructure/vision"
)

func (c *cli) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the detector over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.verbose()
			if cmd.Flags().Changed("addr") {
				c.cfg.HTTPAddr = addr
			}
			deps, err := c.container(cmd.Context())
			if err != nil {
				return err
			}

			gin.SetMode(gin.ReleaseMode)
			h := rest.NewHandler(deps.Detector, deps.Loader, c.log)
			return rest.Serve(cmd.Context(), c.cfg.HTTPAddr, h, c.log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (env HTTP_ADDR, default :8080)")
	return cmd
}

func (c *cli) botCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.verbose()
			if c.cfg.TelegramToken == "" {
				return domain.InvalidCommand("TELEGRAM_TOKEN is required")
			}
			deps, err := c.container(cmd.Context())
			if err != nil {
				return err
			}

			bot, err := telegram.NewBot(c.cfg.TelegramToken, deps.UserService, deps.Detector, deps.Loader, vision.Annotate, c.log)
			if err != nil {
				return err
			}
			c.log.Info("bot is running")
			return bot.Run(cmd.Context())
		},
	}
}
