package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/ratio/internal/models"
)

// SnapshotFilename is the compiled batch output written next to the PDFs
const SnapshotFilename = "compiled_company_data.json"

// WriteSnapshot persists the compiled batch as JSON and returns the file path.
// The snapshot is the durable record of a run; comparisons can be regenerated
// from it without refetching provider data.
func (s *Service) WriteSnapshot(reports []models.CompanyReport) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(reports, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal batch snapshot: %w", err)
	}

	path := filepath.Join(s.outputDir, SnapshotFilename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write batch snapshot: %w", err)
	}

	s.logger.Info().
		Str("path", path).
		Int("company_count", len(reports)).
		Msg("Batch snapshot written")
	return path, nil
}

// LoadSnapshot reads a previously written batch snapshot from the output
// directory.
func (s *Service) LoadSnapshot() ([]models.CompanyReport, error) {
	path := filepath.Join(s.outputDir, SnapshotFilename)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch snapshot %s: %w", path, err)
	}

	var reports []models.CompanyReport
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("failed to parse batch snapshot %s: %w", path, err)
	}

	return reports, nil
}
