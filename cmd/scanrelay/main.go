package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kdudkov/scanrelay/internal/config"
)

var (
	gitRevision = "unknown"
	gitBranch   = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "scanrelay",
	Short: "Relay radio scanner events to dashboards",
	Long: `scanrelay tails the radio event collection written by the recorder,
enriches every event with talkgroup metadata and streams it to websocket
and MQTT subscribers. It also answers talkgroup and time window history
queries over HTTP.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		setLogger(debug)

		return nil
	},
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "scanrelay %s:%s\n", gitBranch, gitRevision)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "scanrelay.yml", "name of config file")
	rootCmd.PersistentFlags().Bool("debug", false, "debug logging")

	rootCmd.AddCommand(versionCmd)
}

func setLogger(debug bool) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	if debug {
		opts.Level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
}

func loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	cfg := config.NewAppConfig()

	name, _ := cmd.Flags().GetString("config")
	if err := cfg.Load(name); err != nil {
		return nil, err
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Set("debug", true)
	}

	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
