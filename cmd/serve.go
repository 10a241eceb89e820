package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bnema/subaccount-pool/internal/adapters/httpapi"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd(app *app) *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pool HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			defer app.close()

			addr := app.cfg.ListenAddr
			if strings.TrimSpace(listenAddr) != "" {
				addr = listenAddr
			}

			handler := httpapi.NewHandler(httpapi.Options{
				Pool:     app.allocator,
				MainKeys: app.mainKeys,
				Logger:   app.logger,
				Metrics:  app.metrics,
			})

			app.logger.WithFields(logrus.Fields{
				"store":    app.cfg.Store.Driver,
				"base_url": app.cfg.API.BaseURL,
			}).Info("starting subaccount pool")

			return httpapi.Serve(ctx, addr, handler, app.logger)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address, overrides listen_addr")

	return cmd
}
