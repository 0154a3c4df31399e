// Package api exposes the history store, the persona roster and chat
// replies over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/comigor/guruchat/internal/chat"
	"github.com/comigor/guruchat/internal/history"
	"github.com/comigor/guruchat/internal/logger"
	"github.com/comigor/guruchat/internal/persona"
)

// replyTimeout bounds one chat reply.
const replyTimeout = 60 * time.Second

// Server serves the HTTP API.
type Server struct {
	store         *history.Store
	replier       chat.Replier
	defaultAuthor string
}

// New returns a server over store answering chats with replier.
func New(store *history.Store, replier chat.Replier, defaultAuthor string) *Server {
	return &Server{store: store, replier: replier, defaultAuthor: defaultAuthor}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /api/personas", s.personas)
	mux.HandleFunc("GET /api/history", s.listHistory)
	mux.HandleFunc("POST /api/history", s.createHistory)
	mux.HandleFunc("PATCH /api/history/{id}", s.renameHistory)
	mux.HandleFunc("DELETE /api/history/{id}", s.deleteHistory)
	mux.HandleFunc("GET /api/history/{id}/messages", s.sessionMessages)
	mux.HandleFunc("POST /api/history/{id}/chat", s.sessionChat)
	mux.HandleFunc("POST /api/chat", s.chat)
	return mux
}

type groupListing struct {
	Name    history.Group   `json:"name"`
	Entries []history.Entry `json:"entries"`
}

type historyResponse struct {
	Groups []groupListing `json:"groups"`
}

type createRequest struct {
	Group string `json:"group"`
	Title string `json:"title"`
}

type renameRequest struct {
	Title string `json:"title"`
}

type deleteResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

type chatRequest struct {
	Content  string   `json:"content"`
	Mode     string   `json:"mode"`
	Personas []string `json:"personas"`
}

type chatResponse struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L.Error("write response error", "err", err)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.L.Warn("bad request body", "path", r.URL.Path, "err", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) personas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, persona.Roster())
}

func (s *Server) listHistory(w http.ResponseWriter, _ *http.Request) {
	listing := s.store.ListByGroup()
	resp := historyResponse{Groups: []groupListing{}}
	for _, g := range s.store.Groups() {
		entries := listing[g]
		if entries == nil {
			entries = []history.Entry{}
		}
		resp.Groups = append(resp.Groups, groupListing{Name: g, Entries: entries})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createHistory(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !decode(w, r, &req) {
		return
	}
	e, err := s.store.Create(history.Group(strings.TrimSpace(req.Group)), req.Title)
	if errors.Is(err, history.ErrBlankTitle) || errors.Is(err, history.ErrBlankGroup) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		logger.L.Error("create history error", "err", err)
		http.Error(w, "failed to create entry", http.StatusInternalServerError)
		return
	}
	logger.L.Info("history entry created", "id", e.ID, "group", e.Group)
	writeJSON(w, http.StatusCreated, e)
}

// renameHistory answers with the entry as stored afterwards; a blank title
// leaves it unchanged rather than failing.
func (s *Server) renameHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req renameRequest
	if !decode(w, r, &req) {
		return
	}
	applied := s.store.Rename(id, req.Title)
	e, ok := s.store.Get(id)
	if !ok {
		http.Error(w, "history entry not found", http.StatusNotFound)
		return
	}
	logger.L.Info("history entry rename", "id", id, "applied", applied)
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) deleteHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.store.Delete(id) {
		http.Error(w, "history entry not found", http.StatusNotFound)
		return
	}
	logger.L.Info("history entry deleted", "id", id)
	writeJSON(w, http.StatusOK, deleteResponse{Status: "deleted", ID: id})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		http.Error(w, "content is blank", http.StatusBadRequest)
		return
	}
	author, text := s.reply(r.Context(), req, content, nil)
	writeJSON(w, http.StatusOK, chatResponse{Author: author, Content: text})
}

func (s *Server) reply(ctx context.Context, req chatRequest, content string, past []history.Message) (author, text string) {
	author = chat.Author(req.Personas, s.defaultAuthor)
	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	text = chat.ReplyText(ctx, s.replier, chat.Request{
		Mode:     chat.ParseMode(req.Mode),
		Author:   author,
		Personas: req.Personas,
		Content:  content,
		History:  past,
	})
	return author, text
}

func (s *Server) sessionMessages(w http.ResponseWriter, r *http.Request) {
	msgs, ok := s.store.Messages(r.PathValue("id"))
	if !ok {
		http.Error(w, "history entry not found", http.StatusNotFound)
		return
	}
	if msgs == nil {
		msgs = []history.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// sessionChat files the user's message and the reply under the session, the
// way the terminal chat does.
func (s *Server) sessionChat(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		http.Error(w, "content is blank", http.StatusBadRequest)
		return
	}
	past, ok := s.store.Messages(id)
	if !ok || !s.store.AppendMessage(id, history.UserMessage(content)) {
		http.Error(w, "history entry not found", http.StatusNotFound)
		return
	}

	author, text := s.reply(r.Context(), req, content, past)
	if !s.store.AppendMessage(id, history.OpponentMessage(author, text)) {
		logger.L.Warn("session deleted before its reply", "id", id)
	}
	writeJSON(w, http.StatusOK, chatResponse{Author: author, Content: text})
}
