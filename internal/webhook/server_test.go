// internal/webhook/server_test.go
package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/user/inkwell/internal/gateway"
	"github.com/user/inkwell/internal/host"
	"github.com/user/inkwell/internal/state"
	"github.com/user/inkwell/internal/tracker"
	"github.com/user/inkwell/internal/types"
)

type nopObserver struct {
	dates []types.StoryDate
}

func (o *nopObserver) OnDateObserved(_ context.Context, _ types.ConversationKey, date types.StoryDate) error {
	o.dates = append(o.dates, date)
	return nil
}

func setupServer(t *testing.T) (*Server, *state.ConversationStore, *nopObserver) {
	srv, conversations, observer, _ := setupServerWithBridge(t)
	return srv, conversations, observer
}

func setupServerWithBridge(t *testing.T) (*Server, *state.ConversationStore, *nopObserver, *host.Bridge) {
	t.Helper()
	dir := t.TempDir()
	conversations := state.NewConversationStore(dir)
	settings := state.NewGlobalStore(dir)
	observer := &nopObserver{}
	gw := gateway.New(tracker.Extractor{}, observer, gateway.NewHistory(0))
	bridge := host.NewBridge()
	return NewServer(gw, conversations, settings, bridge), conversations, observer, bridge
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %s", resp["status"])
	}
}

func TestInstructionEndpoint(t *testing.T) {
	srv, _, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/host/instruction", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp["instruction"], "RP_DATE") {
		t.Errorf("instruction missing date marker format: %q", resp["instruction"])
	}
}

func TestCapabilitiesRegistration(t *testing.T) {
	srv, _, _, bridge := setupServerWithBridge(t)

	var slashCommands []string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/run":
			json.NewEncoder(w).Encode(map[string]string{"text": "https://host.example/render/42.png"})
		case "/slash":
			slashCommands = append(slashCommands, req["command"].(string))
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer backend.Close()

	body := `{"command_url":"` + backend.URL + `/run","commands":["sd","genraw"],"slash_url":"` + backend.URL + `/slash"}`
	req := httptest.NewRequest(http.MethodPost, "/host/capabilities", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Both command legs resolve against the registry now.
	name, callback, ok := bridge.Registry().Lookup("sd", "draw", "imagine")
	if !ok || name != "sd" {
		t.Fatalf("image command not registered, lookup = %q %v", name, ok)
	}
	raw, err := callback(context.Background(), map[string]string{"quiet": "true"}, "1girl, reading")
	if err != nil {
		t.Fatal(err)
	}
	if got := host.Normalize(raw); got != "https://host.example/render/42.png" {
		t.Errorf("callback result = %q", got)
	}
	if _, _, ok := bridge.Registry().Lookup("genraw", "gen"); !ok {
		t.Error("generation command not registered")
	}

	// Registering a slash runner installs the date instruction immediately.
	if !bridge.HasSlash() {
		t.Error("slash runner not registered")
	}
	if len(slashCommands) != 1 || !strings.Contains(slashCommands[0], "/inject") {
		t.Errorf("expected one /inject slash call, got %v", slashCommands)
	}
	if !strings.Contains(slashCommands[0], "RP_DATE") {
		t.Errorf("injected instruction missing date marker: %q", slashCommands[0])
	}
}

func TestCapabilitiesValidation(t *testing.T) {
	srv, _, _ := setupServer(t)

	for name, body := range map[string]string{
		"bad json":                `{not json`,
		"commands without url":    `{"commands":["sd"]}`,
		"nothing to register":     `{}`,
		"empty command list only": `{"command_url":"http://127.0.0.1:1/run"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/host/capabilities", strings.NewReader(body))
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, w.Code)
		}
	}
}

func TestHostMessageFeedsTracker(t *testing.T) {
	srv, _, observer := setupServer(t)

	body := `{"narrator":"Aria","conversation":"room-1","name":"Aria","payload":"{{RP_DATE: 2024-03-15}} 안녕"}`
	req := httptest.NewRequest(http.MethodPost, "/host/message", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(observer.dates) != 1 {
		t.Fatalf("observer got %d dates, want 1", len(observer.dates))
	}
	want := types.StoryDate{Year: 2024, Month: 3, Day: 15}
	if !observer.dates[0].Equal(want) {
		t.Errorf("date = %v, want %v", observer.dates[0], want)
	}
}

func TestHostMessageValidation(t *testing.T) {
	srv, _, _ := setupServer(t)

	for name, body := range map[string]string{
		"bad json":         `{not json`,
		"missing identity": `{"payload":"hello"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/host/message", strings.NewReader(body))
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, w.Code)
		}
	}
}

func TestListConversations(t *testing.T) {
	srv, conversations, _ := setupServer(t)
	ctx := context.Background()
	key := types.NewConversationKey("Aria", "webhook:room-1")
	if err := conversations.SetLastDate(ctx, key, types.StoryDate{Year: 2024, Month: 3, Day: 15}); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var keys []types.ConversationKey
	if err := json.NewDecoder(w.Body).Decode(&keys); err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != key {
		t.Errorf("keys = %v, want [%s]", keys, key)
	}
}

func TestEntriesListAndDelete(t *testing.T) {
	srv, conversations, _ := setupServer(t)
	ctx := context.Background()
	key := types.NewConversationKey("Aria", "webhook:room-1")
	entry, err := conversations.UpsertEntry(ctx, key, &types.DiaryEntry{
		Date:    types.StoryDate{Year: 2024, Month: 3, Day: 15},
		Content: "내용",
	})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/"+string(key)+"/entries", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var entries []types.DiaryEntry
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != entry.ID {
		t.Fatalf("entries = %v", entries)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/conversations/"+string(key)+"/entries/"+string(entry.ID), nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	found, err := conversations.EntryByDate(ctx, key, entry.Date)
	if err != nil {
		t.Fatal(err)
	}
	if found != nil {
		t.Error("entry not deleted")
	}
}

func TestAppearancesEndpoint(t *testing.T) {
	srv, _, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/appearances", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var appearances []types.CharacterAppearance
	if err := json.NewDecoder(w.Body).Decode(&appearances); err != nil {
		t.Fatal(err)
	}
	if appearances == nil {
		t.Error("expected empty array, got null")
	}
}
