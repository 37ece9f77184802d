// internal/types/models.go
package types

import (
	"fmt"
	"time"
)

// StoryDate is the fictional in-narrative date, independent of wall-clock
// time. It carries no time-of-day. Month/day values are not range-checked
// here; validation is an optional tracker policy.
type StoryDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// IsZero reports whether the date is missing. A date without a year is
// treated as missing everywhere.
func (d StoryDate) IsZero() bool {
	return d.Year == 0
}

// Equal is component-wise equality.
func (d StoryDate) Equal(other StoryDate) bool {
	return d.Year == other.Year && d.Month == other.Month && d.Day == other.Day
}

// Before orders dates lexicographically by (year, month, day).
func (d StoryDate) Before(other StoryDate) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func (d StoryDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// DiaryEntry is one diary page, narrated by the character for a single
// story date. At most one entry per date exists within a conversation.
type DiaryEntry struct {
	ID            EntryID   `json:"id"`
	Date          StoryDate `json:"date"`
	Content       string    `json:"content"`
	FontStyle     string    `json:"font_style"`
	Weather       string    `json:"weather"`
	Mood          string    `json:"mood"`
	CharacterName string    `json:"character_name"`
	ImageURL      string    `json:"image_url,omitempty"`
	ImageCaption  string    `json:"image_caption,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ConversationSettings are per-conversation overrides. Nil fields fall back
// to the corresponding GlobalSettings value.
type ConversationSettings struct {
	AutoWrite    *bool `json:"auto_write,omitempty"`
	IncludePhoto *bool `json:"include_photo,omitempty"`
}

// ConversationState is the whole persisted document for one conversation.
// LastDate is the change-detection pivot, not the date of the latest entry.
// PendingDates holds dates whose auto-write was dropped by the single-flight
// guard and should be retried by the catch-up sweep.
type ConversationState struct {
	SchemaVersion int                  `json:"schema_version"`
	Entries       []DiaryEntry         `json:"entries"`
	Settings      ConversationSettings `json:"settings"`
	LastDate      *StoryDate           `json:"last_date,omitempty"`
	PendingDates  []StoryDate          `json:"pending_dates,omitempty"`
}

// CharacterAppearance maps a character name to a Danbooru-style tag string
// used when composing image prompts. Names are unique case-insensitively.
type CharacterAppearance struct {
	Name string `json:"name"`
	Tags string `json:"tags"`
}

// GlobalSettings is the singleton cross-conversation preferences document.
type GlobalSettings struct {
	SchemaVersion        int                   `json:"schema_version"`
	AutoWrite            bool                  `json:"auto_write"`
	IncludePhoto         bool                  `json:"include_photo"`
	ContextTokenBudget   int                   `json:"context_token_budget"`
	CharacterAppearances []CharacterAppearance `json:"character_appearances"`
}

// DefaultGlobalSettings returns the settings used before anything has been
// configured.
func DefaultGlobalSettings() *GlobalSettings {
	return &GlobalSettings{
		SchemaVersion:      1,
		AutoWrite:          true,
		IncludePhoto:       true,
		ContextTokenBudget: 30000,
	}
}

// HostMessage is one chat message as delivered by a host adapter.
type HostMessage struct {
	Name   string `json:"name"`
	Text   string `json:"text"`
	IsUser bool   `json:"is_user"`
}

// NarratorProfile is the character/user context gathered from explicit host
// collaborators (never scraped back out of rendered output).
type NarratorProfile struct {
	CharacterName        string `json:"character_name"`
	CharacterDescription string `json:"character_description,omitempty"`
	UserName             string `json:"user_name,omitempty"`
	UserPersona          string `json:"user_persona,omitempty"`
}
