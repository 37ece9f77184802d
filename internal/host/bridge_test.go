// internal/host/bridge_test.go
package host

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBridgeCommandCallback(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name    string            `json:"name"`
			Args    map[string]string `json:"args"`
			Payload string            `json:"payload"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
		}
		if req.Name != "genraw" || req.Args["quiet"] != "true" {
			t.Errorf("got name=%q args=%v", req.Name, req.Args)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"text": "echo: " + req.Payload})
	}))
	defer backend.Close()

	bridge := NewBridge()
	bridge.RegisterCommands(backend.URL, []string{"genraw", "gen"})

	gen := NewCommandGenerator(bridge.Registry(), "genraw", "gen")
	text, err := gen.Generate(context.Background(), "write a diary", 512)
	if err != nil {
		t.Fatal(err)
	}
	if text != "echo: write a diary" {
		t.Errorf("got %q", text)
	}
}

func TestBridgeCommandErrorStatus(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "generation backend offline", http.StatusBadGateway)
	}))
	defer backend.Close()

	bridge := NewBridge()
	bridge.RegisterCommands(backend.URL, []string{"genraw"})

	_, callback, ok := bridge.Registry().Lookup("genraw")
	if !ok {
		t.Fatal("command not registered")
	}
	_, err := callback(context.Background(), nil, "prompt")
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error should carry the status: %v", err)
	}
}

func TestBridgeBareTextResponse(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain answer"))
	}))
	defer backend.Close()

	bridge := NewBridge()
	bridge.RegisterCommands(backend.URL, []string{"gen"})

	_, callback, _ := bridge.Registry().Lookup("gen")
	raw, err := callback(context.Background(), nil, "p")
	if err != nil {
		t.Fatal(err)
	}
	if Normalize(raw) != "plain answer" {
		t.Errorf("got %q", Normalize(raw))
	}
}

func TestBridgeSlashRunner(t *testing.T) {
	bridge := NewBridge()

	// Before the host registers, the slash leg must fail cleanly so the
	// chain can fall through.
	if _, err := bridge.Execute(context.Background(), "/genraw hi"); err == nil {
		t.Fatal("expected error before a slash runner is registered")
	}

	var seen []string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Command string `json:"command"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
		}
		seen = append(seen, req.Command)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"content": "slash output"})
	}))
	defer backend.Close()

	bridge.SetSlashURL(backend.URL)
	if !bridge.HasSlash() {
		t.Fatal("slash runner should be registered")
	}

	gen := NewSlashGenerator(bridge.Execute, "genraw")
	text, err := gen.Generate(context.Background(), "hello", 512)
	if err != nil {
		t.Fatal(err)
	}
	if text != "slash output" {
		t.Errorf("got %q", text)
	}
	if len(seen) != 1 || seen[0] != "/genraw quiet=true hello" {
		t.Errorf("commands = %v", seen)
	}
}

func TestBridgeInjector(t *testing.T) {
	var seen string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Command string `json:"command"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		seen = req.Command
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer backend.Close()

	bridge := NewBridge()
	bridge.SetSlashURL(backend.URL)

	if err := InjectDateInstruction(context.Background(), bridge.Injector()); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(seen, "/inject id="+instructionID) {
		t.Errorf("command = %q", seen)
	}
	if !strings.Contains(seen, "RP_DATE") {
		t.Errorf("instruction text missing from command: %q", seen)
	}
}
