package cli

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/glowcircle/glow/internal/api"
	"github.com/glowcircle/glow/internal/daemon"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the points HTTP API",
	Long: `Run the HTTP API consumed by the UI layer: balance, history,
check-in, routine tasks, referrals, reversals, and the live notice feed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")
		cfg, err := daemon.Load(cfgPath)
		if err != nil {
			return err
		}

		engine, closeStore, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		server := api.NewServer(engine)
		if cfg.API.Metrics {
			server.EnableMetrics()
		}
		if cfg.API.Dev {
			server.EnableDevEndpoints()
		}

		addr := cfg.Addr()
		if flagAddr, _ := cmd.Flags().GetString("addr"); flagAddr != "" {
			addr = flagAddr
		}

		fmt.Fprintf(os.Stdout, "glow API listening on %s\n", addr)
		log.Printf("serving points API on %s (metrics=%v dev=%v)", addr, cfg.API.Metrics, cfg.API.Dev)
		return http.ListenAndServe(addr, server.Handler())
	},
}
