package narrative

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
)

// defaultIndividualPrompt is the XML-formatted analysis request for a single
// company. {company_name} is substituted at request time.
const defaultIndividualPrompt = `<analysis_request>
    <company>{company_name}</company>
    <sections>
        <strategic_analysis>
            <strengths>Identify 3-4 key financial and operational strengths with supporting data</strengths>
            <weaknesses>Identify 3-4 main financial and operational weaknesses with supporting data</weaknesses>
            <opportunities>List 3-4 potential growth opportunities and market advantages</opportunities>
            <threats>List 3-4 key market risks and competitive threats</threats>
        </strategic_analysis>
        <detailed_analysis>
            <market_position>Analyze current market position and competitive standing</market_position>
            <financial_health>Evaluate overall financial health including key ratios and metrics</financial_health>
            <outlook>Provide forward-looking analysis and growth potential</outlook>
            <recommendation>
                <rating>Provide a clear investment rating (Buy/Hold/Sell)</rating>
                <rationale>Explain the investment recommendation with key supporting factors</rationale>
            </recommendation>
        </detailed_analysis>
    </sections>
</analysis_request>`

// defaultComparisonPrompt is the request template for multi-company
// comparison. {company_names} is substituted at request time and the metric
// payload is appended after the template.
const defaultComparisonPrompt = `<comparison_request>
    <companies>{company_names}</companies>
    <sections>
        <relative_analysis>
            <valuation>Compare key valuation metrics (P/E, P/B, etc.)</valuation>
            <profitability>Compare profit margins and operational efficiency</profitability>
            <growth>Compare revenue and earnings growth trends</growth>
        </relative_analysis>
        <recommendations>
            <ranking>Rank companies by investment attractiveness</ranking>
            <rationale>Explain the ranking with supporting metrics</rationale>
        </recommendations>
    </sections>
</comparison_request>`

// Settings holds the user-editable prompt templates and sampling parameters.
// They live in a JSON file next to the application so users can tune prompts
// without rebuilding.
type Settings struct {
	IndividualPrompt string  `json:"individual_prompt" validate:"required"`
	ComparisonPrompt string  `json:"comparison_prompt" validate:"required"`
	MaxTokens        int     `json:"max_tokens" validate:"gte=1,lte=128000"`
	ModelTemperature float64 `json:"model_temperature" validate:"gte=0,lte=2"`
}

// DefaultSettings returns settings with the built-in prompt templates
func DefaultSettings() Settings {
	return Settings{
		IndividualPrompt: defaultIndividualPrompt,
		ComparisonPrompt: defaultComparisonPrompt,
		MaxTokens:        1000,
		ModelTemperature: 0.2,
	}
}

// SettingsStore loads and persists Settings. A missing file is not an
// error: defaults are written on first load so the user has a file to edit.
type SettingsStore struct {
	path     string
	logger   arbor.ILogger
	validate *validator.Validate

	mu       sync.RWMutex
	settings Settings
}

// NewSettingsStore creates a settings store for the given file path
func NewSettingsStore(path string, logger arbor.ILogger) *SettingsStore {
	return &SettingsStore{
		path:     path,
		logger:   logger,
		validate: validator.New(),
		settings: DefaultSettings(),
	}
}

// Load reads settings from disk. When the file does not exist the defaults
// are saved and used; a malformed or invalid file is an error.
func (s *SettingsStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.logger.Info().Str("path", s.path).Msg("Settings file not found, writing defaults")
		s.settings = DefaultSettings()
		return s.saveLocked()
	}
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	// Start from defaults so missing fields keep their default values
	settings := DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("failed to parse settings file %s: %w", s.path, err)
	}
	if err := s.validate.Struct(settings); err != nil {
		return fmt.Errorf("invalid settings in %s: %w", s.path, err)
	}

	s.settings = settings
	s.logger.Debug().
		Str("path", s.path).
		Int("max_tokens", settings.MaxTokens).
		Float64("temperature", settings.ModelTemperature).
		Msg("Settings loaded")
	return nil
}

// Save writes the current settings to disk
func (s *SettingsStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *SettingsStore) saveLocked() error {
	data, err := json.MarshalIndent(s.settings, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

// Settings returns a copy of the current settings
func (s *SettingsStore) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetIndividualPrompt updates the individual prompt template and persists
func (s *SettingsStore) SetIndividualPrompt(prompt string) error {
	return s.update(func(settings *Settings) { settings.IndividualPrompt = prompt })
}

// SetComparisonPrompt updates the comparison prompt template and persists
func (s *SettingsStore) SetComparisonPrompt(prompt string) error {
	return s.update(func(settings *Settings) { settings.ComparisonPrompt = prompt })
}

// SetMaxTokens updates the response token budget and persists
func (s *SettingsStore) SetMaxTokens(tokens int) error {
	return s.update(func(settings *Settings) { settings.MaxTokens = tokens })
}

// SetModelTemperature updates the sampling temperature and persists
func (s *SettingsStore) SetModelTemperature(temperature float64) error {
	return s.update(func(settings *Settings) { settings.ModelTemperature = temperature })
}

func (s *SettingsStore) update(apply func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := s.settings
	apply(&updated)
	if err := s.validate.Struct(updated); err != nil {
		return fmt.Errorf("invalid settings value: %w", err)
	}

	s.settings = updated
	return s.saveLocked()
}
