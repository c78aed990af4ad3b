package narrative

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/ratio/internal/common"
	"github.com/ternarybob/ratio/internal/interfaces"
)

// newRequestLimiter builds a one-request-per-interval limiter from a
// duration string. An empty string disables limiting.
func newRequestLimiter(interval string) (*rate.Limiter, error) {
	if interval == "" {
		return nil, nil
	}
	d, err := time.ParseDuration(interval)
	if err != nil {
		return nil, err
	}
	if d <= 0 {
		return nil, nil
	}
	return rate.NewLimiter(rate.Every(d), 1), nil
}

// NewLLMService creates the appropriate LLM service implementation based on
// the configured default provider.
func NewLLMService(
	cfg *common.Config,
	settings Settings,
	kvStorage interfaces.KeyValueStorage,
	logger arbor.ILogger,
) (interfaces.LLMService, error) {
	provider := cfg.LLM.DefaultProvider
	if provider == "" {
		provider = common.LLMProviderClaude
	}

	logger.Info().Str("provider", string(provider)).Msg("Initializing LLM service")

	switch provider {
	case common.LLMProviderClaude:
		service, err := NewClaudeService(&cfg.Claude, settings, kvStorage, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Claude LLM service: %w", err)
		}
		return service, nil

	case common.LLMProviderGemini:
		service, err := NewGeminiService(&cfg.Gemini, settings, kvStorage, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini LLM service: %w", err)
		}
		return service, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider '%s': must be 'claude' or 'gemini'", provider)
	}
}
