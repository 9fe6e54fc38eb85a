package config

import (
	"context"
	"encoding/json"

	"chat-client/internal/models"
	"chat-client/internal/store"
)

// Settings returns the connection preferences that get written through
// to the store under the settings key.
func (c *Config) Settings() models.Settings {
	return models.Settings{
		Server:  c.Server.Addr,
		DevMode: c.Server.DevMode,
	}
}

// SaveSettings persists the connection settings.
func SaveSettings(ctx context.Context, s store.Store, settings models.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return s.Set(ctx, store.KeySettings, raw)
}

// LoadSettings reads the settings persisted by a previous run, if any.
func LoadSettings(ctx context.Context, s store.Store) (models.Settings, bool, error) {
	raw, ok, err := s.Get(ctx, store.KeySettings)
	if err != nil || !ok {
		return models.Settings{}, false, err
	}

	var settings models.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return models.Settings{}, false, err
	}
	return settings, true, nil
}
