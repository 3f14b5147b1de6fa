// MarketDeck — Indian market dashboard API
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marketdeck/marketdeck/api"
	"github.com/marketdeck/marketdeck/internal/config"
	"github.com/marketdeck/marketdeck/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "marketdeck",
	Short: "MarketDeck — Indian market dashboard API",
	Long: `MarketDeck serves a unified JSON view of the Indian markets:
NIFTY 50 constituents, bulk deals, the all-indices table, SENSEX,
gold and silver in INR/kg, USD/INR, India VIX, the trading calendar,
and market news headlines.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("MarketDeck %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := api.NewServer(cfg)
		if err != nil {
			return fmt.Errorf("server setup failed: %w", err)
		}

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 Starting MarketDeck API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  MarketDeck — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:    %s (%s)\n", version, commit)
		fmt.Printf("  Time (IST): %s\n", utils.FormatDateTimeIST(utils.NowIST()))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    API Server:     %s:%d\n", cfg.API.Host, cfg.API.Port)
		nse := cfg.Upstream.NSEBaseURL
		if nse == "" {
			nse = "(production)"
		}
		yahoo := cfg.Upstream.YahooBaseURL
		if yahoo == "" {
			yahoo = "(production)"
		}
		fmt.Printf("    NSE Upstream:   %s\n", nse)
		fmt.Printf("    Yahoo Upstream: %s\n", yahoo)
		fmt.Printf("    HTTP Timeout:   %s\n", cfg.Upstream.Timeout())
		if n := len(cfg.News.Feeds); n > 0 {
			fmt.Printf("    News Feeds:     %d configured\n", n)
		} else {
			fmt.Println("    News Feeds:     built-in defaults")
		}
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
