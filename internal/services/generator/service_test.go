package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ratio/internal/interfaces"
	"github.com/ternarybob/ratio/internal/models"
	"github.com/ternarybob/ratio/internal/services/narrative"
	"github.com/ternarybob/ratio/internal/services/report"
)

const testPayloadTemplate = `{
	"%s": {
		"profile": {
			"data": {
				"sector": "Technology",
				"industry": "Consumer Electronics",
				"contacts": {"NAME": "%s", "COUNTRY": "United States"}
			}
		},
		"ratios": {
			"data": {"items": [
				{"id": "AREVPS", "value": 24.34},
				{"id": "TTMEPS", "value": 6.13},
				{"id": "APEEXCLXOR", "value": 28.4},
				{"id": "APRICE2BK", "value": 45.1},
				{"id": "TTMOPMGN", "value": 30.2},
				{"id": "AGROSMGN", "value": 43.8}
			]}
		}
	}
}`

type mockMarketData struct {
	mu         sync.Mutex
	fetchCount map[string]int
	failISINs  map[string]bool
}

func newMockMarketData() *mockMarketData {
	return &mockMarketData{
		fetchCount: make(map[string]int),
		failISINs:  make(map[string]bool),
	}
}

func (m *mockMarketData) SearchCompanies(_ context.Context, query string, _ int) ([]models.CompanyMatch, error) {
	return []models.CompanyMatch{{ID: "1", Name: query, ISIN: "US0378331005"}}, nil
}

func (m *mockMarketData) FetchDocument(_ context.Context, isin string) (*models.RawDocument, error) {
	m.mu.Lock()
	m.fetchCount[isin]++
	m.mu.Unlock()

	if m.failISINs[isin] {
		return nil, fmt.Errorf("provider error for %s", isin)
	}

	payload := fmt.Sprintf(testPayloadTemplate, isin, "Test Co "+isin)
	return models.ParseDocument([]byte(payload))
}

func (m *mockMarketData) fetches(isin string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCount[isin]
}

type mockKV struct {
	mu    sync.Mutex
	pairs map[string]string
}

func newMockKV() *mockKV {
	return &mockKV{pairs: make(map[string]string)}
}

func (m *mockKV) normalize(key string) string { return strings.ToLower(key) }

func (m *mockKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.pairs[m.normalize(key)]
	if !ok {
		return "", interfaces.ErrKeyNotFound
	}
	return value, nil
}

func (m *mockKV) GetPair(ctx context.Context, key string) (*interfaces.KeyValuePair, error) {
	value, err := m.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return &interfaces.KeyValuePair{Key: m.normalize(key), Value: value}, nil
}

func (m *mockKV) Set(_ context.Context, key, value, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs[m.normalize(key)] = value
	return nil
}

func (m *mockKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pairs[m.normalize(key)]; !ok {
		return interfaces.ErrKeyNotFound
	}
	delete(m.pairs, m.normalize(key))
	return nil
}

func (m *mockKV) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs = make(map[string]string)
	return nil
}

func (m *mockKV) List(_ context.Context) ([]interfaces.KeyValuePair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pairs []interfaces.KeyValuePair
	for k, v := range m.pairs {
		pairs = append(pairs, interfaces.KeyValuePair{Key: k, Value: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	return pairs, nil
}

func (m *mockKV) GetAll(_ context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.pairs))
	for k, v := range m.pairs {
		out[k] = v
	}
	return out, nil
}

func (m *mockKV) ListByPrefix(_ context.Context, prefix string) ([]interfaces.KeyValuePair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pairs []interfaces.KeyValuePair
	for k, v := range m.pairs {
		if strings.HasPrefix(k, m.normalize(prefix)) {
			pairs = append(pairs, interfaces.KeyValuePair{Key: k, Value: v})
		}
	}
	return pairs, nil
}

type stubLLM struct {
	response string
	calls    int
}

func (s *stubLLM) Chat(_ context.Context, _ []interfaces.Message) (string, error) {
	s.calls++
	return s.response, nil
}

func (s *stubLLM) HealthCheck(_ context.Context) error { return nil }
func (s *stubLLM) GetMode() interfaces.LLMMode         { return interfaces.LLMModeCloud }
func (s *stubLLM) Close() error                        { return nil }

func newTestService(t *testing.T, market interfaces.MarketDataService, kv interfaces.KeyValueStorage, llm interfaces.LLMService) (*Service, string) {
	t.Helper()
	logger := arbor.NewLogger()
	outputDir := t.TempDir()

	var narrativeSvc *narrative.Service
	if llm != nil {
		store := narrative.NewSettingsStore(filepath.Join(t.TempDir(), "api_settings.json"), logger)
		require.NoError(t, store.Load())
		narrativeSvc = narrative.NewService(llm, store, logger)
	}

	reportSvc := report.NewService(outputDir, logger)
	return NewService(market, narrativeSvc, reportSvc, kv, time.Hour, outputDir, logger), outputDir
}

func TestGenerate_SingleCompany(t *testing.T) {
	market := newMockMarketData()
	service, outputDir := newTestService(t, market, newMockKV(), nil)

	result, err := service.Generate(context.Background(), []Selection{
		{Name: "Apple Inc", ISIN: "US0378331005"},
	}, false)
	require.NoError(t, err)

	require.Len(t, result.Reports, 1)
	assert.Equal(t, "Apple Inc", result.Reports[0].CompanyName)
	assert.Equal(t, "US0378331005", result.Reports[0].ISIN)
	assert.Empty(t, result.Reports[0].AIInsights)
	assert.NotEmpty(t, result.BatchID)

	require.Len(t, result.Statuses, 1)
	assert.NoError(t, result.Statuses[0].Err)
	assert.FileExists(t, result.Statuses[0].ReportPath)

	assert.Equal(t, filepath.Join(outputDir, SnapshotFilename), result.SnapshotPath)
	assert.FileExists(t, result.SnapshotPath)
	assert.Empty(t, result.ComparisonPath, "single company should not produce a comparison")
}

func TestGenerate_BatchWithComparisonAndAI(t *testing.T) {
	market := newMockMarketData()
	llm := &stubLLM{response: "AI narrative text."}
	service, _ := newTestService(t, market, newMockKV(), llm)

	result, err := service.Generate(context.Background(), []Selection{
		{Name: "Company A", ISIN: "US0000000001"},
		{Name: "Company B", ISIN: "US0000000002"},
	}, true)
	require.NoError(t, err)

	require.Len(t, result.Reports, 2)
	assert.Equal(t, "AI narrative text.", result.Reports[0].AIInsights)
	assert.FileExists(t, result.ComparisonPath)

	// Two individual analyses plus one comparison analysis
	assert.Equal(t, 3, llm.calls)
}

func TestGenerate_FailedCompanyIsIsolated(t *testing.T) {
	market := newMockMarketData()
	market.failISINs["US0000000002"] = true
	service, _ := newTestService(t, market, newMockKV(), nil)

	result, err := service.Generate(context.Background(), []Selection{
		{Name: "Good Co", ISIN: "US0000000001"},
		{Name: "Bad Co", ISIN: "US0000000002"},
	}, false)
	require.NoError(t, err)

	require.Len(t, result.Reports, 1)
	assert.Equal(t, "Good Co", result.Reports[0].CompanyName)

	require.Len(t, result.Statuses, 2)
	assert.NoError(t, result.Statuses[0].Err)
	assert.Error(t, result.Statuses[1].Err)
}

func TestGenerate_AllCompaniesFail(t *testing.T) {
	market := newMockMarketData()
	market.failISINs["US0000000001"] = true
	service, _ := newTestService(t, market, newMockKV(), nil)

	result, err := service.Generate(context.Background(), []Selection{
		{Name: "Bad Co", ISIN: "US0000000001"},
	}, false)
	assert.Error(t, err)
	assert.Empty(t, result.Reports)
}

func TestGenerate_NoSelections(t *testing.T) {
	service, _ := newTestService(t, newMockMarketData(), newMockKV(), nil)

	_, err := service.Generate(context.Background(), nil, false)
	assert.Error(t, err)
}

func TestFetchDocument_CacheHit(t *testing.T) {
	market := newMockMarketData()
	kv := newMockKV()
	service, _ := newTestService(t, market, kv, nil)

	selections := []Selection{{Name: "Apple Inc", ISIN: "US0378331005"}}

	_, err := service.Generate(context.Background(), selections, false)
	require.NoError(t, err)
	assert.Equal(t, 1, market.fetches("US0378331005"))

	// Second run serves the document from the KV cache
	_, err = service.Generate(context.Background(), selections, false)
	require.NoError(t, err)
	assert.Equal(t, 1, market.fetches("US0378331005"))
}

func TestClearCache_ForcesRefetch(t *testing.T) {
	market := newMockMarketData()
	kv := newMockKV()
	service, _ := newTestService(t, market, kv, nil)

	selections := []Selection{{Name: "Apple Inc", ISIN: "US0378331005"}}

	_, err := service.Generate(context.Background(), selections, false)
	require.NoError(t, err)
	assert.Equal(t, 1, market.fetches("US0378331005"))

	removed, err := service.ClearCache(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = service.Generate(context.Background(), selections, false)
	require.NoError(t, err)
	assert.Equal(t, 2, market.fetches("US0378331005"))
}

func TestClearCache_NoStorage(t *testing.T) {
	service, _ := newTestService(t, newMockMarketData(), nil, nil)

	removed, err := service.ClearCache(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestFetchDocument_ExpiredCacheRefetches(t *testing.T) {
	market := newMockMarketData()
	kv := newMockKV()
	service, _ := newTestService(t, market, kv, nil)
	service.cacheTTL = time.Nanosecond

	selections := []Selection{{Name: "Apple Inc", ISIN: "US0378331005"}}

	_, err := service.Generate(context.Background(), selections, false)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	_, err = service.Generate(context.Background(), selections, false)
	require.NoError(t, err)
	assert.Equal(t, 2, market.fetches("US0378331005"))
}

func TestFetchDocument_CorruptCacheEntryRefetches(t *testing.T) {
	market := newMockMarketData()
	kv := newMockKV()
	service, _ := newTestService(t, market, kv, nil)

	require.NoError(t, kv.Set(context.Background(), "rawdoc:US0378331005", "{not json", ""))

	_, err := service.Generate(context.Background(), []Selection{
		{Name: "Apple Inc", ISIN: "US0378331005"},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, market.fetches("US0378331005"))
}

func TestSnapshotRoundTrip(t *testing.T) {
	market := newMockMarketData()
	service, outputDir := newTestService(t, market, newMockKV(), nil)

	result, err := service.Generate(context.Background(), []Selection{
		{Name: "Company A", ISIN: "US0000000001"},
		{Name: "Company B", ISIN: "US0000000002"},
	}, false)
	require.NoError(t, err)

	loaded, err := service.LoadSnapshot()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, result.Reports[0].CompanyName, loaded[0].CompanyName)

	pe := loaded[0].FinancialData.ValuationRatios["pe_ratio"]
	require.NotNil(t, pe.Value)
	assert.InDelta(t, 28.4, pe.Value.Float, 0.0001)

	// A comparison can be regenerated from the snapshot alone
	require.NoError(t, os.Remove(filepath.Join(outputDir, "Companies_Comparison_financial_report.pdf")))
	path, err := service.Compare(context.Background(), loaded, false)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestCompare_RequiresTwoCompanies(t *testing.T) {
	service, _ := newTestService(t, newMockMarketData(), newMockKV(), nil)

	_, err := service.Compare(context.Background(), []models.CompanyReport{{CompanyName: "Solo"}}, false)
	assert.Error(t, err)
}
