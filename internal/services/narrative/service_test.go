package narrative

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ratio/internal/interfaces"
	"github.com/ternarybob/ratio/internal/models"
)

type mockLLM struct {
	response string
	err      error
	prompts  []string
}

func (m *mockLLM) Chat(_ context.Context, messages []interfaces.Message) (string, error) {
	for _, msg := range messages {
		m.prompts = append(m.prompts, msg.Content)
	}
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) HealthCheck(_ context.Context) error { return m.err }
func (m *mockLLM) GetMode() interfaces.LLMMode         { return interfaces.LLMModeCloud }
func (m *mockLLM) Close() error                        { return nil }

func newTestNarrativeService(t *testing.T, llm interfaces.LLMService) *Service {
	t.Helper()
	store := NewSettingsStore(filepath.Join(t.TempDir(), "api_settings.json"), arbor.NewLogger())
	require.NoError(t, store.Load())
	return NewService(llm, store, arbor.NewLogger())
}

func TestService_IndividualAnalysis(t *testing.T) {
	llm := &mockLLM{response: "  Apple shows strong fundamentals.  "}
	service := newTestNarrativeService(t, llm)

	result := service.IndividualAnalysis(context.Background(), "Apple Inc")

	assert.Equal(t, "Apple shows strong fundamentals.", result)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "<company>Apple Inc</company>")
	assert.NotContains(t, llm.prompts[0], "{company_name}")
}

func TestService_IndividualAnalysis_FailureReturnsEmpty(t *testing.T) {
	llm := &mockLLM{err: fmt.Errorf("api unavailable")}
	service := newTestNarrativeService(t, llm)

	result := service.IndividualAnalysis(context.Background(), "Apple Inc")

	assert.Empty(t, result)
}

func TestService_ComparisonAnalysis(t *testing.T) {
	llm := &mockLLM{response: "Company A trades at a premium to Company B."}
	service := newTestNarrativeService(t, llm)

	reports := []models.CompanyReport{
		{
			CompanyName: "Company A",
			ISIN:        "US0000000001",
			FinancialData: &models.NormalizedRecord{
				ValuationRatios: map[string]models.MetricValue{
					"PE Ratio": {Value: models.ParsedNumber(18.5), Period: "Trailing 12 Months"},
				},
			},
		},
		{
			CompanyName: "Company B",
			ISIN:        "US0000000002",
			FinancialData: &models.NormalizedRecord{
				ValuationRatios: map[string]models.MetricValue{
					"PE Ratio": {Value: models.ParsedNumber(9.1), Period: "Trailing 12 Months"},
				},
			},
		},
	}

	result := service.ComparisonAnalysis(context.Background(), reports)

	assert.Equal(t, "Company A trades at a premium to Company B.", result)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Company A, Company B")
	assert.Contains(t, llm.prompts[0], "valuation_ratios")
}

func TestService_ComparisonAnalysis_NoUsableDataReturnsEmpty(t *testing.T) {
	llm := &mockLLM{response: "should never be called"}
	service := newTestNarrativeService(t, llm)

	result := service.ComparisonAnalysis(context.Background(), []models.CompanyReport{
		{CompanyName: "Empty Co"},
	})

	assert.Empty(t, result)
	assert.Empty(t, llm.prompts, "LLM should not be invoked without usable company data")
}
