package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"msgsync/server"
	"msgsync/storage"
)

func newServeCmd() *cobra.Command {
	var (
		addr      string
		dataDir   string
		advertise bool
		writeRate float64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the message store HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, log, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.ListenAddr = addr
			}
			if cmd.Flags().Changed("advertise") {
				cfg.Advertise = advertise
			}
			if cmd.Flags().Changed("write-rate") {
				cfg.WriteRate = writeRate
			}
			if dataDir == "" {
				dataDir = filepath.Dir(cfgPath)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server ID:       %s\n", cfg.ClientID)
			fmt.Fprintf(out, "Listen Address:  %s\n", cfg.ListenAddr)
			fmt.Fprintf(out, "Config File:     %s\n", cfgPath)

			store, dbPath, err := storage.Open(dataDir)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer func() {
				if err := store.Close(); err != nil {
					log.WithError(err).Error("database close error")
				}
			}()
			fmt.Fprintf(out, "Database File:   %s\n", dbPath)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.Run(ctx, store, server.RunConfig{
				Addr:      cfg.ListenAddr,
				ServerID:  cfg.ClientID,
				Advertise: cfg.Advertise,
				Options: server.Options{
					Log:        log,
					WriteRate:  cfg.WriteRate,
					WriteBurst: cfg.WriteBurst,
				},
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 0.0.0.0:8080)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory holding messages.db (default: config directory)")
	cmd.Flags().BoolVar(&advertise, "advertise", false, "announce the server on the LAN via mDNS")
	cmd.Flags().Float64Var(&writeRate, "write-rate", 0, "max create/delete requests per second, 0 for unlimited")
	return cmd
}
