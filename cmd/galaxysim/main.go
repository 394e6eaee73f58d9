// Command galaxysim hosts an idle galaxy game: it runs the tick loop, replays
// offline time, and offers one-shot maintenance commands against the save.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "galaxysim",
		Short: "Idle galaxy economy host",
		Long: `galaxysim loads (or seeds) a galaxy save, simulates production and
population on a wall-clock timer, and persists the game to SQLite or Postgres
with optional S3 backups.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to YAML config file")

	rootCmd.AddCommand(runCmd(), fastForwardCmd(), reportCmd(), resetPrestigeCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
