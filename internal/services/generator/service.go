package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ratio/internal/interfaces"
	"github.com/ternarybob/ratio/internal/metrics"
	"github.com/ternarybob/ratio/internal/models"
	"github.com/ternarybob/ratio/internal/services/narrative"
	"github.com/ternarybob/ratio/internal/services/report"
)

// cacheKeyPrefix namespaces cached fundamentals documents in the KV store
const cacheKeyPrefix = "rawdoc:"

// Selection identifies one company chosen for a report batch
type Selection struct {
	Name string
	ISIN string
}

// CompanyStatus is the per-company outcome of a batch run
type CompanyStatus struct {
	CompanyName string
	ISIN        string
	ReportPath  string
	Err         error
}

// BatchResult summarizes one report generation batch
type BatchResult struct {
	BatchID        string
	Reports        []models.CompanyReport
	Statuses       []CompanyStatus
	SnapshotPath   string
	ComparisonPath string
}

// Service orchestrates a report batch: fetch fundamentals (with KV caching),
// normalize metrics, generate narratives, render PDFs, write the snapshot.
// One company failing does not abort the batch.
type Service struct {
	market    interfaces.MarketDataService
	builder   *metrics.Builder
	narrative *narrative.Service
	reports   *report.Service
	kv        interfaces.KeyValueStorage
	cacheTTL  time.Duration
	outputDir string
	logger    arbor.ILogger
}

// NewService creates a generator service. The narrative service may be nil
// when AI enrichment is disabled; kv may be nil to disable document caching.
func NewService(
	market interfaces.MarketDataService,
	narrativeSvc *narrative.Service,
	reportSvc *report.Service,
	kv interfaces.KeyValueStorage,
	cacheTTL time.Duration,
	outputDir string,
	logger arbor.ILogger,
) *Service {
	return &Service{
		market:    market,
		builder:   metrics.NewBuilder(metrics.NewCatalog(), logger),
		narrative: narrativeSvc,
		reports:   reportSvc,
		kv:        kv,
		cacheTTL:  cacheTTL,
		outputDir: outputDir,
		logger:    logger,
	}
}

// Generate runs a full report batch for the selected companies. Individual
// PDFs are written per company; batches of two or more also get a comparison
// report. Failed companies are recorded in the result statuses and skipped.
func (s *Service) Generate(ctx context.Context, selections []Selection, withAI bool) (*BatchResult, error) {
	if len(selections) == 0 {
		return nil, fmt.Errorf("no companies selected for report generation")
	}

	result := &BatchResult{BatchID: uuid.New().String()}

	s.logger.Info().
		Str("batch_id", result.BatchID).
		Int("company_count", len(selections)).
		Bool("with_ai", withAI).
		Msg("Starting report batch")

	for _, sel := range selections {
		status := CompanyStatus{CompanyName: sel.Name, ISIN: sel.ISIN}

		companyReport, err := s.generateCompany(ctx, sel, withAI)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("isin", sel.ISIN).
				Msg("Skipping company after generation failure")
			status.Err = err
			result.Statuses = append(result.Statuses, status)
			continue
		}
		status.CompanyName = companyReport.CompanyName

		path, err := s.reports.WriteCompanyReport(*companyReport)
		if err != nil {
			status.Err = err
			result.Statuses = append(result.Statuses, status)
			continue
		}
		status.ReportPath = path

		result.Reports = append(result.Reports, *companyReport)
		result.Statuses = append(result.Statuses, status)
	}

	if len(result.Reports) == 0 {
		return result, fmt.Errorf("no company reports could be generated")
	}

	snapshotPath, err := s.WriteSnapshot(result.Reports)
	if err != nil {
		return result, fmt.Errorf("failed to write batch snapshot: %w", err)
	}
	result.SnapshotPath = snapshotPath

	if len(result.Reports) >= 2 {
		comparisonPath, err := s.Compare(ctx, result.Reports, withAI)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to generate comparison report")
		} else {
			result.ComparisonPath = comparisonPath
		}
	}

	s.logger.Info().
		Str("batch_id", result.BatchID).
		Int("succeeded", len(result.Reports)).
		Int("failed", len(result.Statuses)-len(result.Reports)).
		Msg("Report batch completed")

	return result, nil
}

// Compare renders the comparison PDF for an already-compiled set of reports
func (s *Service) Compare(ctx context.Context, reports []models.CompanyReport, withAI bool) (string, error) {
	if len(reports) < 2 {
		return "", fmt.Errorf("comparison requires at least two companies, got %d", len(reports))
	}

	insights := ""
	if withAI && s.narrative != nil {
		insights = s.narrative.ComparisonAnalysis(ctx, reports)
	}

	return s.reports.WriteComparisonReport(reports, insights)
}

func (s *Service) generateCompany(ctx context.Context, sel Selection, withAI bool) (*models.CompanyReport, error) {
	doc, err := s.fetchDocument(ctx, sel.ISIN)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fundamentals for %s: %w", sel.ISIN, err)
	}

	record, err := s.builder.Build(doc)
	if err != nil {
		return nil, err
	}

	name := sel.Name
	if name == "" {
		name = record.CompanyOverview.Name
	}

	companyReport := &models.CompanyReport{
		CompanyName:   name,
		ISIN:          doc.ISIN,
		FinancialData: record,
	}

	if withAI && s.narrative != nil {
		companyReport.AIInsights = s.narrative.IndividualAnalysis(ctx, name)
	}

	return companyReport, nil
}

// ClearCache removes every cached fundamentals document so the next batch
// refetches from the provider. Returns the number of entries removed.
func (s *Service) ClearCache(ctx context.Context) (int, error) {
	if s.kv == nil {
		return 0, nil
	}

	pairs, err := s.kv.ListByPrefix(ctx, cacheKeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list cached documents: %w", err)
	}

	removed := 0
	for _, pair := range pairs {
		if err := s.kv.Delete(ctx, pair.Key); err != nil {
			s.logger.Warn().Err(err).Str("key", pair.Key).Msg("Failed to delete cached document")
			continue
		}
		removed++
	}

	s.logger.Debug().Int("removed", removed).Msg("Document cache cleared")
	return removed, nil
}

// cachedDocument is the KV cache envelope for a raw fundamentals payload
type cachedDocument struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Data      json.RawMessage `json:"data"`
}

// fetchDocument returns the fundamentals document for an ISIN, serving from
// the KV cache when a fresh copy exists and refreshing it otherwise.
func (s *Service) fetchDocument(ctx context.Context, isin string) (*models.RawDocument, error) {
	key := cacheKeyPrefix + strings.ToUpper(isin)

	if doc := s.cachedDocument(ctx, key); doc != nil {
		return doc, nil
	}

	doc, err := s.market.FetchDocument(ctx, isin)
	if err != nil {
		return nil, err
	}

	if s.kv != nil && s.cacheTTL > 0 && len(doc.Raw) > 0 {
		payload, err := json.Marshal(cachedDocument{
			FetchedAt: time.Now().UTC(),
			Data:      doc.Raw,
		})
		if err == nil {
			if err := s.kv.Set(ctx, key, string(payload), "cached fundamentals document"); err != nil {
				s.logger.Warn().Err(err).Str("isin", isin).Msg("Failed to cache fundamentals document")
			}
		}
	}

	return doc, nil
}

func (s *Service) cachedDocument(ctx context.Context, key string) *models.RawDocument {
	if s.kv == nil || s.cacheTTL <= 0 {
		return nil
	}

	value, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, interfaces.ErrKeyNotFound) {
			s.logger.Warn().Err(err).Str("key", key).Msg("Document cache lookup failed")
		}
		return nil
	}

	var cached cachedDocument
	if err := json.Unmarshal([]byte(value), &cached); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Discarding corrupt cache entry")
		return nil
	}
	if time.Since(cached.FetchedAt) >= s.cacheTTL {
		s.logger.Debug().Str("key", key).Msg("Cache entry expired")
		return nil
	}

	doc, err := models.ParseDocument(cached.Data)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Discarding unparsable cache entry")
		return nil
	}

	s.logger.Debug().Str("key", key).Msg("Serving fundamentals document from cache")
	return doc
}
