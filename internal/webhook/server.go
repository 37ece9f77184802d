// internal/webhook/server.go
package webhook

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/user/inkwell/internal/gateway"
	"github.com/user/inkwell/internal/host"
	"github.com/user/inkwell/internal/types"
)

// Server exposes the diary over HTTP: an inbound message endpoint for hosts
// that can only call out, a capability registration endpoint, plus a read
// API over entries and settings.
type Server struct {
	gateway       *gateway.Gateway
	conversations types.ConversationStore
	settings      types.SettingsStore
	bridge        *host.Bridge
	mux           *http.ServeMux
}

// NewServer creates the HTTP surface over the gateway, stores and host bridge.
func NewServer(gw *gateway.Gateway, conversations types.ConversationStore, settings types.SettingsStore, bridge *host.Bridge) *Server {
	s := &Server{
		gateway:       gw,
		conversations: conversations,
		settings:      settings,
		bridge:        bridge,
		mux:           http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /host/instruction", s.handleInstruction)
	s.mux.HandleFunc("POST /host/capabilities", s.handleCapabilities)
	s.mux.HandleFunc("POST /host/message", s.handleMessage)
	s.mux.HandleFunc("POST /host/switch", s.handleSwitch)
	s.mux.HandleFunc("GET /api/conversations", s.handleListConversations)
	s.mux.HandleFunc("GET /api/conversations/", s.handleConversation)
	s.mux.HandleFunc("DELETE /api/conversations/", s.handleConversation)
	s.mux.HandleFunc("GET /api/appearances", s.handleAppearances)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleInstruction returns the date-marker instruction a host should
// inject into its prompts.
func (s *Server) handleInstruction(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"instruction": host.DateInstruction})
}

// capabilitiesRequest is the JSON body for POST /host/capabilities: the
// host announces which of its commands the diary may drive and where to
// call them back.
type capabilitiesRequest struct {
	CommandURL string   `json:"command_url"`
	Commands   []string `json:"commands"`
	SlashURL   string   `json:"slash_url"`
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	var req capabilitiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if len(req.Commands) > 0 && req.CommandURL == "" {
		http.Error(w, `{"error":"command_url is required when registering commands"}`, http.StatusBadRequest)
		return
	}
	if len(req.Commands) == 0 && req.SlashURL == "" {
		http.Error(w, `{"error":"nothing to register"}`, http.StatusBadRequest)
		return
	}

	if len(req.Commands) > 0 {
		s.bridge.RegisterCommands(req.CommandURL, req.Commands)
		slog.Info("host commands registered", "commands", req.Commands)
	}
	injected := false
	if req.SlashURL != "" {
		s.bridge.SetSlashURL(req.SlashURL)
		slog.Info("host slash runner registered")
		// A slash runner also means we can install the date-marker
		// instruction without waiting for the host to poll for it.
		if err := host.InjectDateInstruction(r.Context(), s.bridge.Injector()); err != nil {
			slog.Warn("date instruction injection failed", "error", err)
		} else {
			injected = true
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":     "registered",
		"commands":   len(req.Commands),
		"slash":      req.SlashURL != "",
		"instructed": injected,
	})
}

// messageRequest is the JSON body for POST /host/message.
type messageRequest struct {
	Narrator     string `json:"narrator"`
	Conversation string `json:"conversation"`
	Name         string `json:"name"`
	Payload      string `json:"payload"`
	IsUser       bool   `json:"is_user"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Narrator == "" || req.Conversation == "" {
		http.Error(w, `{"error":"narrator and conversation are required"}`, http.StatusBadRequest)
		return
	}

	err := s.gateway.HandleMessage(r.Context(), gateway.InboundMessage{
		Narrator:     req.Narrator,
		Conversation: "webhook:" + req.Conversation,
		Name:         req.Name,
		Payload:      req.Payload,
		IsUser:       req.IsUser,
	})
	if err != nil {
		slog.Error("inbound message handling failed", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}

// switchRequest is the JSON body for POST /host/switch.
type switchRequest struct {
	Narrator     string `json:"narrator"`
	Conversation string `json:"conversation"`
}

func (s *Server) handleSwitch(w http.ResponseWriter, r *http.Request) {
	var req switchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Narrator == "" || req.Conversation == "" {
		http.Error(w, `{"error":"narrator and conversation are required"}`, http.StatusBadRequest)
		return
	}
	s.gateway.SwitchConversation(types.NewConversationKey(req.Narrator, "webhook:"+req.Conversation))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	keys, err := s.conversations.List(r.Context())
	if err != nil {
		slog.Error("list conversations failed", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	if keys == nil {
		keys = []types.ConversationKey{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(keys)
}

// handleConversation serves entry reads and deletes under
// /api/conversations/{key}/entries[/{id}].
func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/conversations/")
	parts := strings.SplitN(path, "/entries", 2)
	if len(parts) < 2 {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	key := types.ConversationKey(parts[0])

	switch r.Method {
	case http.MethodGet:
		s.listEntries(w, r, key)
	case http.MethodDelete:
		id := strings.TrimPrefix(parts[1], "/")
		if id == "" {
			http.Error(w, `{"error":"entry id required"}`, http.StatusBadRequest)
			return
		}
		s.deleteEntry(w, r, key, types.EntryID(id))
	default:
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
	}
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request, key types.ConversationKey) {
	state, err := s.conversations.Load(r.Context(), key)
	if err != nil {
		slog.Error("load conversation failed", "conversation", key, "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	entries := state.Entries
	if entries == nil {
		entries = []types.DiaryEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request, key types.ConversationKey, id types.EntryID) {
	if err := s.conversations.DeleteEntry(r.Context(), key, id); err != nil {
		slog.Error("delete entry failed", "conversation", key, "id", id, "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

func (s *Server) handleAppearances(w http.ResponseWriter, r *http.Request) {
	appearances, err := s.settings.Appearances(r.Context())
	if err != nil {
		slog.Error("list appearances failed", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	if appearances == nil {
		appearances = []types.CharacterAppearance{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appearances)
}
