package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ratio/internal/compare"
	"github.com/ternarybob/ratio/internal/interfaces"
	"github.com/ternarybob/ratio/internal/models"
)

// Service assembles report markdown and writes rendered PDFs to the output
// directory.
type Service struct {
	pdf       interfaces.PDFService
	formatter *compare.Formatter
	outputDir string
	logger    arbor.ILogger
}

// NewService creates a report service writing to outputDir
func NewService(outputDir string, logger arbor.ILogger) *Service {
	return &Service{
		pdf:       NewPDFService(logger),
		formatter: compare.NewFormatter(logger),
		outputDir: outputDir,
		logger:    logger,
	}
}

// WriteCompanyReport renders the individual report PDF for one company and
// returns the written file path.
func (s *Service) WriteCompanyReport(report models.CompanyReport) (string, error) {
	name := report.CompanyName
	if name == "" {
		name = report.ISIN
	}

	markdown := BuildCompanyMarkdown(report)
	title := fmt.Sprintf("%s Financial Report", name)

	filename := fmt.Sprintf("%s_financial_report.pdf", sanitizeFilename(name))
	path, err := s.writePDF(markdown, title, filename)
	if err != nil {
		return "", err
	}

	s.logger.Info().
		Str("company", name).
		Str("path", path).
		Msg("Company report generated")
	return path, nil
}

// WriteComparisonReport renders the comparison report PDF for a batch of
// companies and returns the written file path.
func (s *Service) WriteComparisonReport(reports []models.CompanyReport, insights string) (string, error) {
	if len(reports) == 0 {
		return "", fmt.Errorf("no company reports to compare")
	}

	markdown := BuildComparisonMarkdown(reports, insights, s.formatter)

	path, err := s.writePDF(markdown, "Company Comparison Analysis", "Companies_Comparison_financial_report.pdf")
	if err != nil {
		return "", err
	}

	s.logger.Info().
		Int("company_count", len(reports)).
		Str("path", path).
		Msg("Comparison report generated")
	return path, nil
}

func (s *Service) writePDF(markdown, title, filename string) (string, error) {
	data, err := s.pdf.ConvertMarkdownToPDF(markdown, title)
	if err != nil {
		return "", fmt.Errorf("failed to render report PDF: %w", err)
	}

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(s.outputDir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return path, nil
}

// sanitizeFilename replaces characters that are unsafe in file names
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	sanitized := strings.TrimSpace(replacer.Replace(name))
	if sanitized == "" {
		sanitized = "company"
	}
	return sanitized
}
