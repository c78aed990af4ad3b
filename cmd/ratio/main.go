// -----------------------------------------------------------------------
// Last Modified: Friday, 8th November 2025 4:00:00 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ratio/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	searchQuery  = flag.String("search", "", "Search listed companies by name or symbol")
	reportISINs  = flag.String("report", "", "Comma-separated ISINs to generate reports for")
	reportNames  = flag.String("names", "", "Optional comma-separated display names matching -report order")
	compareOnly  = flag.Bool("compare", false, "Regenerate the comparison report from the last snapshot")
	noAI         = flag.Bool("no-ai", false, "Skip AI narrative generation")
	refreshCache = flag.Bool("refresh", false, "Discard cached fundamentals and refetch from the provider")
	otpCode      = flag.String("otp", "", "One-time password for accounts with two-factor auth")
	outputDir    = flag.String("output", "", "Output directory for reports (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	// Register custom flag for multiple config files
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	// Parse command-line flags
	flag.Parse()

	// Handle version flag
	if *showVersion || *showVersionV {
		fmt.Printf("Ratio version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("ratio.toml"); err == nil {
			configFiles = append(configFiles, "ratio.toml")
		} else if _, err := os.Stat("deployments/local/ratio.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/ratio.toml")
		}
	}

	// 1. Load configuration (default -> file1 -> file2 -> ... -> env -> CLI)
	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		// Use temporary logger for startup errors
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		os.Exit(1)
	}

	// 2. Apply command-line flag overrides (highest priority)
	if *outputDir != "" {
		config.Reports.OutputDir = *outputDir
	}
	if *noAI {
		config.LLM.Enabled = false
	}

	// 3. Initialize logger with final configuration
	logger = common.InitLogger(config)

	// 4. Print banner
	common.PrintBanner(common.GetVersion())

	logger.Debug().
		Str("badger_path", config.Storage.Badger.Path).
		Str("log_level", config.Logging.Level).
		Str("output_dir", config.Reports.OutputDir).
		Str("llm_provider", string(config.LLM.DefaultProvider)).
		Bool("llm_enabled", config.LLM.Enabled).
		Msg("Resolved configuration (sanitized)")

	// Cancel in-flight work on Ctrl+C
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *searchQuery != "":
		err = runSearch(ctx, *searchQuery)
	case *reportISINs != "":
		err = runReport(ctx, *reportISINs, *reportNames)
	case *compareOnly:
		err = runCompare(ctx)
	default:
		fmt.Fprintln(os.Stderr, "No command given: use -search, -report, or -compare")
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
