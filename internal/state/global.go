// internal/state/global.go
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/peterbourgon/diskv/v3"

	"github.com/user/inkwell/internal/types"
)

const (
	globalSchemaVersion = 1
	globalKey           = "global"
)

// GlobalStore is the singleton cross-conversation settings document, stored
// in diskv next to the conversation documents.
type GlobalStore struct {
	d  *diskv.Diskv
	mu sync.RWMutex
}

// NewGlobalStore creates a store rooted at <root>/settings.
func NewGlobalStore(root string) *GlobalStore {
	return &GlobalStore{
		d: diskv.New(diskv.Options{
			BasePath:     filepath.Join(root, "settings"),
			Transform:    func(string) []string { return nil },
			CacheSizeMax: 64 * 1024,
		}),
	}
}

func (s *GlobalStore) load() (*types.GlobalSettings, error) {
	data, err := s.d.Read(globalKey)
	if err != nil {
		if os.IsNotExist(err) {
			return types.DefaultGlobalSettings(), nil
		}
		return nil, fmt.Errorf("read global settings: %w", err)
	}
	var settings types.GlobalSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("unmarshal global settings: %w", err)
	}
	normalize(&settings)
	return &settings, nil
}

func (s *GlobalStore) save(settings *types.GlobalSettings) error {
	normalize(settings)
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal global settings: %w", err)
	}
	if err := s.d.Write(globalKey, data); err != nil {
		return fmt.Errorf("write global settings: %w", err)
	}
	return nil
}

// normalize enforces the settings invariants: a positive token budget and a
// stamped schema version.
func normalize(settings *types.GlobalSettings) {
	if settings.ContextTokenBudget <= 0 {
		settings.ContextTokenBudget = types.DefaultGlobalSettings().ContextTokenBudget
	}
	settings.SchemaVersion = globalSchemaVersion
}

// Initialized reports whether a settings document has ever been saved.
func (s *GlobalStore) Initialized() bool {
	return s.d.Has(globalKey)
}

// Load returns the global settings, or the defaults if none are stored.
func (s *GlobalStore) Load(_ context.Context) (*types.GlobalSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load()
}

// Save replaces the global settings document.
func (s *GlobalStore) Save(_ context.Context, settings *types.GlobalSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(settings)
}

// SetAppearance registers (or updates) a character's appearance tags.
// Names are matched case-insensitively and kept unique.
func (s *GlobalStore) SetAppearance(_ context.Context, name, tags string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.load()
	if err != nil {
		return err
	}
	for i := range settings.CharacterAppearances {
		if strings.EqualFold(settings.CharacterAppearances[i].Name, name) {
			settings.CharacterAppearances[i].Tags = tags
			return s.save(settings)
		}
	}
	settings.CharacterAppearances = append(settings.CharacterAppearances, types.CharacterAppearance{
		Name: name,
		Tags: tags,
	})
	return s.save(settings)
}

// Appearance returns the stored tags for a character name, case-insensitively.
func (s *GlobalStore) Appearance(_ context.Context, name string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings, err := s.load()
	if err != nil {
		return "", false, err
	}
	for _, a := range settings.CharacterAppearances {
		if strings.EqualFold(a.Name, name) {
			return a.Tags, true, nil
		}
	}
	return "", false, nil
}

// RemoveAppearance removes a character's appearance registration.
func (s *GlobalStore) RemoveAppearance(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.load()
	if err != nil {
		return err
	}
	kept := settings.CharacterAppearances[:0]
	for _, a := range settings.CharacterAppearances {
		if !strings.EqualFold(a.Name, name) {
			kept = append(kept, a)
		}
	}
	settings.CharacterAppearances = kept
	return s.save(settings)
}

// Appearances returns all registered appearance tags.
func (s *GlobalStore) Appearances(_ context.Context) ([]types.CharacterAppearance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings, err := s.load()
	if err != nil {
		return nil, err
	}
	return settings.CharacterAppearances, nil
}
