// internal/types/ids.go
package types

import (
	"strings"

	"github.com/google/uuid"
)

type ConversationKey string
type EntryID string

func NewEntryID() EntryID {
	return EntryID(uuid.New().String())
}

// NewConversationKey builds a storage key from narrator identity and
// conversation identity. Diary state is partitioned by this key.
func NewConversationKey(narrator, conversation string) ConversationKey {
	return ConversationKey(strings.Join([]string{narrator, conversation}, ":"))
}

// Narrator returns the narrator component of the key.
func (k ConversationKey) Narrator() string {
	if i := strings.Index(string(k), ":"); i >= 0 {
		return string(k)[:i]
	}
	return string(k)
}

// Conversation returns the conversation component of the key. Host adapters
// prefix it with their scheme (e.g. "telegram:42") so deliveries can be
// routed back.
func (k ConversationKey) Conversation() string {
	if i := strings.Index(string(k), ":"); i >= 0 {
		return string(k)[i+1:]
	}
	return ""
}
