package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"msgsync/discovery"
	"msgsync/network"
	"msgsync/state"
	"msgsync/ui"
)

func newClientCmd() *cobra.Command {
	var (
		apiURL      string
		discover    bool
		placeholder string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Run the interactive message client",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, log, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("api") {
				cfg.APIURL = apiURL
			}
			if cmd.Flags().Changed("placeholder") {
				cfg.Placeholder = placeholder
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if discover {
				endpoint, err := discovery.Resolve(ctx, discovery.Config{})
				if err != nil {
					return fmt.Errorf("discover message server: %w", err)
				}
				cfg.APIURL = endpoint.BaseURL()
				log.WithField("server_id", endpoint.ServerID).Info("discovered message server")
			}

			remote, err := network.NewClient(cfg.APIURL,
				network.WithClientID(cfg.ClientID),
				network.WithLogger(log),
			)
			if err != nil {
				return err
			}

			out := ui.SyncWriter(cmd.OutOrStdout())
			fmt.Fprintf(out, "Client ID:       %s\n", cfg.ClientID)
			fmt.Fprintf(out, "API Root:        %s\n", remote.BaseURL())
			fmt.Fprintf(out, "Type 'help' for commands.\n")

			registry := prometheus.NewRegistry()
			if metricsAddr != "" {
				metricsSrv := &http.Server{
					Addr:              metricsAddr,
					Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.WithError(err).Warn("metrics listener stopped")
					}
				}()
				defer metricsSrv.Close()
			}

			store := state.NewStore(cfg.Placeholder)
			reporter := ui.MultiReporter{
				ui.NewWriterReporter(out),
				ui.LogReporter{Log: log},
			}
			dispatcher := ui.NewDispatcher(store, remote, reporter,
				ui.WithDispatcherLogger(log),
				ui.WithMetrics(registry),
			)

			return ui.NewTerminal(dispatcher, store, cmd.InOrStdin(), out).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api", "", "API root URL, e.g. http://127.0.0.1:8080/api")
	cmd.Flags().BoolVar(&discover, "discover", false, "find the server on the LAN via mDNS instead of --api")
	cmd.Flags().StringVar(&placeholder, "placeholder", "", "input placeholder text")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve client action metrics on this address")
	return cmd
}
