// Command dspybridge runs the DSPyBridge HTTP service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dspybridge/dspybridge/internal/config"
	"github.com/dspybridge/dspybridge/internal/server"
)

var cfg *config.Config

func main() {
	rootCmd := &cobra.Command{
		Use:   "dspybridge",
		Short: "HTTP bridge to Predict, ChainOfThought and ReAct prompting modules",
		Long: `DSPyBridge exposes chat, question answering, reasoning, a tool-using agent
and retrieval-augmented generation over a small REST API.

Configuration comes from defaults, an optional JSON/YAML file named by
DSPYBRIDGE_CONFIG, and environment variables, in that order.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			setupLogging(cfg)
			return nil
		},
	}

	rootCmd.AddCommand(serveCmd(), toolsCmd(), versionCmd())

	// bare "dspybridge" starts the server
	rootCmd.RunE = serveCmd().RunE

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.Debug {
		level = zerolog.DebugLevel
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	zerolog.SetGlobalLevel(level)
}

func serveCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if host != "" {
				cfg.Host = host
			}
			if port != 0 {
				cfg.Port = port
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info().
				Str("service", config.AppName).
				Str("version", config.Version).
				Str("env", cfg.Environment).
				Msg("starting")

			srv, err := server.New(cfg)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			if err := srv.Run(ctx); err != nil {
				return fmt.Errorf("server: %w", err)
			}
			log.Info().Msg("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides DSPYBRIDGE_HOST)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides DSPYBRIDGE_PORT)")
	return cmd
}

func toolsCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools available to the agent",
		Run: func(cmd *cobra.Command, args []string) {
			registry := server.NewRegistry(cfg)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCATEGORIES\tDESCRIPTION")
			for _, info := range registry.Info() {
				if category != "" && !slices.Contains(info.Categories, category) {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", info.Name, strings.Join(info.Categories, ","), info.Description)
			}
			w.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list tools in this category")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", config.AppName, config.Version)
		},
	}
}
