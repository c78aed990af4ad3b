package narrative

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ratio/internal/compare"
	"github.com/ternarybob/ratio/internal/interfaces"
	"github.com/ternarybob/ratio/internal/models"
)

// Service produces AI narrative sections for reports. Failures degrade
// gracefully: an empty string means the report is rendered without an AI
// section.
type Service struct {
	llm       interfaces.LLMService
	settings  *SettingsStore
	formatter *compare.Formatter
	logger    arbor.ILogger
}

// NewService creates a narrative service backed by the given LLM provider.
func NewService(llm interfaces.LLMService, settings *SettingsStore, logger arbor.ILogger) *Service {
	return &Service{
		llm:       llm,
		settings:  settings,
		formatter: compare.NewFormatter(logger),
		logger:    logger,
	}
}

// Close releases the underlying LLM provider
func (s *Service) Close() error {
	if s.llm == nil {
		return nil
	}
	return s.llm.Close()
}

// IndividualAnalysis generates an analysis narrative for a single company.
// Returns an empty string if generation fails.
func (s *Service) IndividualAnalysis(ctx context.Context, companyName string) string {
	if s.llm == nil {
		return ""
	}

	prompt := strings.ReplaceAll(s.settings.Settings().IndividualPrompt, "{company_name}", companyName)

	response, err := s.llm.Chat(ctx, []interfaces.Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("company", companyName).
			Msg("Individual analysis generation failed")
		return ""
	}

	return strings.TrimSpace(response)
}

// ComparisonAnalysis generates a narrative comparing multiple companies.
// The compiled metric data for each company is appended to the prompt.
// Returns an empty string if generation fails.
func (s *Service) ComparisonAnalysis(ctx context.Context, reports []models.CompanyReport) string {
	if s.llm == nil {
		return ""
	}

	prompt, err := s.formatter.BuildPrompt(s.settings.Settings().ComparisonPrompt, reports)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("company_count", len(reports)).
			Msg("Failed to build comparison prompt")
		return ""
	}

	response, err := s.llm.Chat(ctx, []interfaces.Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("company_count", len(reports)).
			Msg("Comparison analysis generation failed")
		return ""
	}

	return strings.TrimSpace(response)
}
