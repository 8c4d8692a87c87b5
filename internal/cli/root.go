// Package cli implements the glow command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/glowcircle/glow/internal/app/rewards"
	"github.com/glowcircle/glow/internal/daemon"
	"github.com/glowcircle/glow/internal/infra/sqlite"
)

var rootCmd = &cobra.Command{
	Use:   "glow",
	Short: "Local points ledger and rewards engine",
	Long: `glow tracks your earned and spent loyalty points in a local
append-only ledger: daily check-ins with streaks, capped routine-task
points, referral rewards, once-only bonuses, and undo for reversible
actions.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config.toml (default ~/.glow/config.toml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// ─── Engine Wiring ──────────────────────────────────────────────────────────

// openEngine loads config, opens the sqlite store, and builds the engine.
// The returned closer releases the database handle.
func openEngine(cmd *cobra.Command) (*rewards.Engine, func(), error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := daemon.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}

	if err := os.MkdirAll(daemon.HomeDir(), 0700); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}

	store, err := sqlite.Open(cfg.DBPath(), cfg.Storage.Namespace)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	engine, err := rewards.NewEngine(store)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return engine, func() { store.Close() }, nil
}
