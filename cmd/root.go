package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"msgsync/config"
	"msgsync/logging"
)

var (
	version = "dev"
	commit  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "msgsync",
	Short: "Palindrome message board: sync client and reference server",
	Long: `msgsync keeps a local list of messages in sync with a remote message
store over HTTP. The same binary can also run that store.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. It is called once by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("env-file", ".env", "optional dotenv file loaded before reading settings")

	rootCmd.AddCommand(newServeCmd(), newClientCmd())
}

// loadSettings loads the env file, the persisted settings and the logger.
func loadSettings(cmd *cobra.Command) (*config.Settings, string, *logrus.Logger, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, "", nil, err
	}

	cfg, cfgPath, err := config.LoadOrCreate()
	if err != nil {
		return nil, "", nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if flagLevel, _ := cmd.Flags().GetString("log-level"); flagLevel != "" {
		level = flagLevel
	}
	log, err := logging.New(level, cmd.ErrOrStderr())
	if err != nil {
		return nil, "", nil, err
	}
	return cfg, cfgPath, log, nil
}
