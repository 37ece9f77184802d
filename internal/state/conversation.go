// internal/state/conversation.go
package state

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"github.com/user/inkwell/internal/types"
)

const conversationSchemaVersion = 1

// ConversationStore keeps one JSON document per conversation in a diskv
// key-value store. All mutations are whole-document read-modify-write, so a
// failed write never leaves a partial state behind.
type ConversationStore struct {
	d  *diskv.Diskv
	mu sync.RWMutex
}

// NewConversationStore creates a store rooted at <root>/conversations.
func NewConversationStore(root string) *ConversationStore {
	return &ConversationStore{
		d: diskv.New(diskv.Options{
			BasePath:     filepath.Join(root, "conversations"),
			Transform:    func(string) []string { return nil },
			CacheSizeMax: 1024 * 1024,
		}),
	}
}

// encodeKey makes the conversation key safe to use as a file name.
func encodeKey(key types.ConversationKey) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

func decodeKey(s string) (types.ConversationKey, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return types.ConversationKey(raw), nil
}

func defaultState() *types.ConversationState {
	return &types.ConversationState{
		SchemaVersion: conversationSchemaVersion,
		Entries:       []types.DiaryEntry{},
	}
}

// load reads the document, returning a fresh default when the conversation
// has no stored state yet. Caller must hold the lock.
func (s *ConversationStore) load(key types.ConversationKey) (*types.ConversationState, error) {
	data, err := s.d.Read(encodeKey(key))
	if err != nil {
		if os.IsNotExist(err) {
			return defaultState(), nil
		}
		return nil, fmt.Errorf("read conversation %s: %w", key, err)
	}
	var state types.ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal conversation %s: %w", key, err)
	}
	if state.SchemaVersion == 0 {
		state.SchemaVersion = conversationSchemaVersion
	}
	return &state, nil
}

// save replaces the whole document. Caller must hold the lock.
func (s *ConversationStore) save(key types.ConversationKey, state *types.ConversationState) error {
	state.SchemaVersion = conversationSchemaVersion
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal conversation %s: %w", key, err)
	}
	if err := s.d.Write(encodeKey(key), data); err != nil {
		return fmt.Errorf("write conversation %s: %w", key, err)
	}
	return nil
}

// Load returns the conversation document, or a default one if none exists.
func (s *ConversationStore) Load(_ context.Context, key types.ConversationKey) (*types.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(key)
}

// Save replaces the conversation document.
func (s *ConversationStore) Save(_ context.Context, key types.ConversationKey, state *types.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(key, state)
}

// sortEntries keeps the date-ascending invariant after any mutation.
func sortEntries(entries []types.DiaryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
}

// UpsertEntry inserts the entry, or merges it into the existing entry for
// the same date. An existing entry keeps its ID and CreatedAt; all other
// fields are overwritten. Returns the stored entry.
func (s *ConversationStore) UpsertEntry(_ context.Context, key types.ConversationKey, entry *types.DiaryEntry) (*types.DiaryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(key)
	if err != nil {
		return nil, err
	}

	stored := *entry
	found := false
	for i := range state.Entries {
		if state.Entries[i].Date.Equal(entry.Date) {
			stored.ID = state.Entries[i].ID
			stored.CreatedAt = state.Entries[i].CreatedAt
			state.Entries[i] = stored
			found = true
			break
		}
	}
	if !found {
		if stored.ID == "" {
			stored.ID = types.NewEntryID()
		}
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = time.Now()
		}
		state.Entries = append(state.Entries, stored)
	}

	sortEntries(state.Entries)

	if err := s.save(key, state); err != nil {
		return nil, err
	}
	return &stored, nil
}

// DeleteEntry removes the entry with the given ID. Deleting an unknown ID is
// not an error.
func (s *ConversationStore) DeleteEntry(_ context.Context, key types.ConversationKey, id types.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(key)
	if err != nil {
		return err
	}

	kept := state.Entries[:0]
	for _, e := range state.Entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	state.Entries = kept

	return s.save(key, state)
}

// EntryByDate returns the entry for the given date, or nil if none exists.
func (s *ConversationStore) EntryByDate(_ context.Context, key types.ConversationKey, date types.StoryDate) (*types.DiaryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, err := s.load(key)
	if err != nil {
		return nil, err
	}
	for i := range state.Entries {
		if state.Entries[i].Date.Equal(date) {
			e := state.Entries[i]
			return &e, nil
		}
	}
	return nil, nil
}

// LastDate returns the most recently observed story date, or nil before any
// date has been seen.
func (s *ConversationStore) LastDate(_ context.Context, key types.ConversationKey) (*types.StoryDate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, err := s.load(key)
	if err != nil {
		return nil, err
	}
	return state.LastDate, nil
}

// SetLastDate records the most recently observed story date.
func (s *ConversationStore) SetLastDate(_ context.Context, key types.ConversationKey, date types.StoryDate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(key)
	if err != nil {
		return err
	}
	state.LastDate = &date
	return s.save(key, state)
}

// AddPendingDate records a date whose write was dropped so the sweep can
// retry it. Duplicate dates are not recorded twice.
func (s *ConversationStore) AddPendingDate(_ context.Context, key types.ConversationKey, date types.StoryDate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(key)
	if err != nil {
		return err
	}
	for _, d := range state.PendingDates {
		if d.Equal(date) {
			return nil
		}
	}
	state.PendingDates = append(state.PendingDates, date)
	return s.save(key, state)
}

// RemovePendingDate clears a retried (or satisfied) pending date.
func (s *ConversationStore) RemovePendingDate(_ context.Context, key types.ConversationKey, date types.StoryDate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(key)
	if err != nil {
		return err
	}
	kept := state.PendingDates[:0]
	for _, d := range state.PendingDates {
		if !d.Equal(date) {
			kept = append(kept, d)
		}
	}
	state.PendingDates = kept
	return s.save(key, state)
}

// List returns every conversation key that has stored state.
func (s *ConversationStore) List(ctx context.Context) ([]types.ConversationKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []types.ConversationKey
	for name := range s.d.Keys(ctx.Done()) {
		key, err := decodeKey(name)
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}
