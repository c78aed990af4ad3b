package badger

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// keyFileEntry is one section of a keys TOML file
// Format:
// [anthropic_api_key]
// value = "sk-ant-..."
// description = "optional description"
type keyFileEntry struct {
	Value       string `toml:"value"`
	Description string `toml:"description"`
}

// LoadKeysFromFile seeds the KV store with API keys and credentials from a
// TOML file. Each section name becomes the storage key. A missing file is not
// an error; the KV store is an optional middle tier between environment
// variables and config values during key resolution.
func (m *Manager) LoadKeysFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			m.logger.Debug().Str("path", path).Msg("Keys file not found, skipping")
			return nil
		}
		return fmt.Errorf("failed to read keys file %s: %w", path, err)
	}

	var entries map[string]keyFileEntry
	if err := toml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse keys file %s: %w", path, err)
	}

	loaded := 0
	for name, entry := range entries {
		key := strings.TrimSpace(name)
		if key == "" || entry.Value == "" {
			m.logger.Warn().Str("file", path).Str("section", name).Msg("Skipping keys file section without a value")
			continue
		}

		if err := m.kv.Set(ctx, key, entry.Value, entry.Description); err != nil {
			m.logger.Warn().Err(err).Str("key", key).Msg("Failed to store key from file")
			continue
		}
		loaded++
	}

	m.logger.Debug().
		Str("path", path).
		Int("loaded", loaded).
		Msg("Keys file loaded into KV store")
	return nil
}
