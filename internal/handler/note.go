package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/lifeboard/lifeboard/internal/auth"
	"github.com/lifeboard/lifeboard/internal/model"
	"github.com/lifeboard/lifeboard/internal/store"
	"github.com/lifeboard/lifeboard/internal/websocket"
)

type NoteHandler struct {
	noteStore *store.NoteStore
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewNoteHandler(ns *store.NoteStore, hub *websocket.Hub, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{noteStore: ns, hub: hub, logger: logger}
}

func (h *NoteHandler) broadcast(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(userID, msg)
	}
}

type noteRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Pinned bool   `json:"pinned"`
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	userID := auth.UserID(r.Context())
	note, err := h.noteStore.Create(userID, req.Title, req.Body, req.Pinned)
	if err != nil {
		h.logger.Error("create note", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create note")
		return
	}

	h.broadcast(userID, websocket.NewMessage("note", "created", note.ID, nil))

	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	notes, err := h.noteStore.List(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list notes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list notes")
		return
	}
	if notes == nil {
		notes = []model.Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req noteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	userID := auth.UserID(r.Context())
	note, err := h.noteStore.Update(userID, id, req.Title, req.Body, req.Pinned)
	if err != nil {
		h.logger.Error("update note", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update note")
		return
	}
	if note == nil {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}

	h.broadcast(userID, websocket.NewMessage("note", "updated", id, nil))

	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	userID := auth.UserID(r.Context())
	deleted, err := h.noteStore.Delete(userID, id)
	if err != nil {
		h.logger.Error("delete note", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete note")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}

	h.broadcast(userID, websocket.NewMessage("note", "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}

func (h *NoteHandler) TogglePinned(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	userID := auth.UserID(r.Context())
	note, err := h.noteStore.TogglePinned(userID, id)
	if err != nil {
		h.logger.Error("toggle note pin", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to toggle pin")
		return
	}
	if note == nil {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}

	h.broadcast(userID, websocket.NewMessage("note", "pinned", id, map[string]any{"pinned": note.Pinned}))

	writeJSON(w, http.StatusOK, note)
}
