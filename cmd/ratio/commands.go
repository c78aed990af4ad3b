package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/ratio/internal/degiro"
	"github.com/ternarybob/ratio/internal/interfaces"
	"github.com/ternarybob/ratio/internal/services/generator"
	"github.com/ternarybob/ratio/internal/services/narrative"
	"github.com/ternarybob/ratio/internal/services/report"
	badgerstorage "github.com/ternarybob/ratio/internal/storage/badger"
)

// newMarketClient builds a Degiro client from config and logs it in
func newMarketClient(ctx context.Context) (*degiro.Client, error) {
	if config.Degiro.Username == "" || config.Degiro.Password == "" {
		return nil, fmt.Errorf("Degiro credentials are required (set degiro.username/password in config or RATIO_DEGIRO_USERNAME/RATIO_DEGIRO_PASSWORD)")
	}

	client := degiro.NewClient(
		config.Degiro.Username,
		config.Degiro.Password,
		degiro.WithBaseURL(config.Degiro.BaseURL),
		degiro.WithHTTPClient(&http.Client{Timeout: config.Degiro.RequestTimeout}),
		degiro.WithRateInterval(config.Degiro.RateLimit),
		degiro.WithUserAgent(config.Degiro.UserAgent),
		degiro.WithSearchLimit(config.Degiro.SearchLimit),
		degiro.WithLogger(logger),
	)

	if err := client.Login(ctx, *otpCode); err != nil {
		return nil, fmt.Errorf("Degiro login failed: %w", err)
	}

	return client, nil
}

// newNarrativeService builds the LLM-backed narrative service when AI
// enrichment is enabled. A provider failure is downgraded to a warning and
// reports are generated without narratives.
func newNarrativeService(settings *narrative.SettingsStore, kv interfaces.KeyValueStorage) *narrative.Service {
	if !config.LLM.Enabled {
		logger.Info().Msg("AI narrative generation disabled")
		return nil
	}

	llm, err := narrative.NewLLMService(config, settings.Settings(), kv, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("LLM provider unavailable, reports will omit the AI section")
		return nil
	}

	return narrative.NewService(llm, settings, logger)
}

func runSearch(ctx context.Context, query string) error {
	client, err := newMarketClient(ctx)
	if err != nil {
		return err
	}
	defer client.Logout(ctx)

	matches, err := client.SearchCompanies(ctx, query, config.Degiro.SearchLimit)
	if err != nil {
		return fmt.Errorf("company search failed: %w", err)
	}

	if len(matches) == 0 {
		fmt.Printf("No companies found for %q\n", query)
		return nil
	}

	fmt.Printf("%-40s %-14s %-8s %s\n", "NAME", "ISIN", "SYMBOL", "CURRENCY")
	for _, match := range matches {
		fmt.Printf("%-40s %-14s %-8s %s\n", match.Name, match.ISIN, match.Symbol, match.Currency)
	}

	return nil
}

func runReport(ctx context.Context, isinList, nameList string) error {
	selections, err := parseSelections(isinList, nameList)
	if err != nil {
		return err
	}

	storage, err := badgerstorage.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer storage.Close()

	if config.Storage.KeysFile != "" {
		if err := storage.LoadKeysFromFile(ctx, config.Storage.KeysFile); err != nil {
			logger.Warn().Err(err).Str("path", config.Storage.KeysFile).Msg("Failed to load keys file")
		}
	}

	settings := narrative.NewSettingsStore(config.Reports.SettingsFile, logger)
	if err := settings.Load(); err != nil {
		return fmt.Errorf("failed to load API settings: %w", err)
	}

	client, err := newMarketClient(ctx)
	if err != nil {
		return err
	}
	defer client.Logout(ctx)

	narrativeSvc := newNarrativeService(settings, storage.KeyValueStorage())
	if narrativeSvc != nil {
		defer narrativeSvc.Close()
	}
	reportSvc := report.NewService(config.Reports.OutputDir, logger)

	gen := generator.NewService(
		client,
		narrativeSvc,
		reportSvc,
		storage.KeyValueStorage(),
		config.CacheTTLDuration(),
		config.Reports.OutputDir,
		logger,
	)

	if *refreshCache {
		removed, err := gen.ClearCache(ctx)
		if err != nil {
			return fmt.Errorf("failed to clear document cache: %w", err)
		}
		logger.Info().Int("removed", removed).Msg("Document cache cleared")
	}

	result, err := gen.Generate(ctx, selections, narrativeSvc != nil)
	if result != nil {
		printBatchSummary(result)
	}
	return err
}

func runCompare(ctx context.Context) error {
	settings := narrative.NewSettingsStore(config.Reports.SettingsFile, logger)
	if err := settings.Load(); err != nil {
		return fmt.Errorf("failed to load API settings: %w", err)
	}

	narrativeSvc := newNarrativeService(settings, nil)
	if narrativeSvc != nil {
		defer narrativeSvc.Close()
	}
	reportSvc := report.NewService(config.Reports.OutputDir, logger)

	gen := generator.NewService(
		nil, // no provider access needed: comparison runs off the snapshot
		narrativeSvc,
		reportSvc,
		nil,
		config.CacheTTLDuration(),
		config.Reports.OutputDir,
		logger,
	)

	reports, err := gen.LoadSnapshot()
	if err != nil {
		return err
	}

	path, err := gen.Compare(ctx, reports, narrativeSvc != nil)
	if err != nil {
		return err
	}

	fmt.Printf("Comparison report written to %s\n", path)
	return nil
}

// parseSelections pairs the -report ISIN list with the optional -names list
func parseSelections(isinList, nameList string) ([]generator.Selection, error) {
	var isins []string
	for _, isin := range strings.Split(isinList, ",") {
		if trimmed := strings.TrimSpace(isin); trimmed != "" {
			isins = append(isins, trimmed)
		}
	}
	if len(isins) == 0 {
		return nil, fmt.Errorf("no ISINs given to -report")
	}

	var names []string
	if nameList != "" {
		for _, name := range strings.Split(nameList, ",") {
			names = append(names, strings.TrimSpace(name))
		}
		if len(names) != len(isins) {
			return nil, fmt.Errorf("-names must list one name per ISIN (%d names for %d ISINs)", len(names), len(isins))
		}
	}

	selections := make([]generator.Selection, len(isins))
	for i, isin := range isins {
		selections[i] = generator.Selection{ISIN: isin}
		if names != nil {
			selections[i].Name = names[i]
		}
	}
	return selections, nil
}

func printBatchSummary(result *generator.BatchResult) {
	fmt.Printf("\nBatch %s\n", result.BatchID)
	for _, status := range result.Statuses {
		name := status.CompanyName
		if name == "" {
			name = status.ISIN
		}
		if status.Err != nil {
			fmt.Printf("  FAILED  %-30s %s (%v)\n", name, status.ISIN, status.Err)
			continue
		}
		fmt.Printf("  OK      %-30s %s -> %s\n", name, status.ISIN, status.ReportPath)
	}
	if result.SnapshotPath != "" {
		fmt.Printf("Snapshot: %s\n", result.SnapshotPath)
	}
	if result.ComparisonPath != "" {
		fmt.Printf("Comparison: %s\n", result.ComparisonPath)
	}
}
