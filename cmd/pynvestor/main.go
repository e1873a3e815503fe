// Command pynvestor serves the screening and portfolio dashboard.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seenimoa/pynvestor/api"
	"github.com/seenimoa/pynvestor/internal/backend"
	"github.com/seenimoa/pynvestor/internal/chart"
	"github.com/seenimoa/pynvestor/internal/config"
	"github.com/seenimoa/pynvestor/internal/controller"
	"github.com/seenimoa/pynvestor/pkg/logger"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger
var (
	cfg *config.Config
	log zerolog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pynvestor",
	Short: "pynvestor: stock screener and portfolio optimizer dashboard",
	Long: `pynvestor serves a dashboard over a scoring and optimization backend:
a fundamentals screener rendered as a grid, stock and portfolio charts,
and an efficient frontier whose points drill down into portfolio weights.`,
	SilenceUsage: true,
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

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		log = logger.New(logger.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})
		logger.SetGlobalLogger(log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(paramsCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pynvestor %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.API.Port = port
		}
		api.Version = version

		srv, err := api.NewServer(cfg, log)
		if err != nil {
			return err
		}
		log.Info().
			Str("backend", cfg.Backend.BaseURL).
			Str("version", version).
			Msg("starting pynvestor dashboard")
		return srv.ListenAndServe(cmd.Context(), cfg.API.Addr())
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (overrides api.port)")
}

// --- Screen Command ---

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Run the screener against the backend and print the result",
	Example: `  pynvestor screen --period annual --filter per=5:20 --filter roe=0.1:1
  pynvestor screen --form saved-form.html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		period, _ := cmd.Flags().GetString("period")
		filters, _ := cmd.Flags().GetStringArray("filter")
		formFile, _ := cmd.Flags().GetString("form")
		asJSON, _ := cmd.Flags().GetBool("json")

		form, err := formFromFlags(period, filters)
		if formFile != "" {
			form, err = formFromFile(formFile)
		}
		if err != nil {
			return err
		}
		req, err := controller.BuildScreeningRequest(form)
		if err != nil {
			return err
		}

		client := newBackendClient()
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		opts, err := client.RunScreener(ctx, req)
		if err != nil {
			return err
		}

		if asJSON {
			return printJSON(opts)
		}
		fmt.Println(renderTable(opts))
		return nil
	},
}

func init() {
	screenCmd.Flags().String("period", "annual", "reporting period (annual, interim)")
	screenCmd.Flags().StringArray("filter", nil, "filter as name=min:max (repeatable)")
	screenCmd.Flags().String("form", "", "read period and filters from a saved screener form (HTML)")
	screenCmd.Flags().Bool("json", false, "print the raw grid document")
}

// --- Params Command ---

var paramsCmd = &cobra.Command{
	Use:   "params [kind]",
	Short: "Build a chart configuration from JSON inputs",
	Long: fmt.Sprintf(`Build a chart configuration and print it as JSON.

Kinds: %v
Inputs are read from --input, or from stdin when omitted.`, chart.Kinds()),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile, _ := cmd.Flags().GetString("input")

		in, err := readInputs(inputFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		cfg, err := chart.Build(chart.Kind(args[0]), in, nil)
		if err != nil {
			return err
		}
		return printJSON(cfg)
	},
}

func init() {
	paramsCmd.Flags().String("input", "", "JSON inputs file")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and secret status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  pynvestor System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Time:          %s\n", time.Now().Format(time.RFC3339))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Backend:       %s (timeout %s, cache %s)\n",
			cfg.Backend.BaseURL, cfg.Backend.Timeout(), cfg.Backend.CacheTTL())
		fmt.Printf("    Dashboard:     %s\n", cfg.API.Addr())
		fmt.Printf("    Chart path:    %s\n", cfg.UI.ChartPath)
		fmt.Printf("    Log level:     %s\n", cfg.Logging.Level)
		fmt.Println()

		fmt.Println("  Secrets:")
		for _, k := range config.CheckKeys(cfg) {
			status := "not set"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func newBackendClient() *backend.Client {
	return backend.New(backend.Options{
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   cfg.Backend.Timeout(),
		UserAgent: cfg.Backend.UserAgent,
		APIToken:  cfg.Backend.APIToken,
	}, log)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
