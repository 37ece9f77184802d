package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/user/inkwell/internal/gateway"
	"github.com/user/inkwell/internal/types"
)

// readDialogue fills a history buffer from "Name: text" lines. Lines
// without a name separator are attributed to the narrator.
func readDialogue(r io.Reader, history *gateway.History, key types.ConversationKey) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name := key.Narrator()
		text := line
		if i := strings.Index(line, ": "); i > 0 {
			name = line[:i]
			text = line[i+2:]
		}
		history.Append(key, types.HostMessage{
			Name:   name,
			Text:   text,
			IsUser: name != key.Narrator(),
		})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read dialogue: %w", err)
	}
	return nil
}
