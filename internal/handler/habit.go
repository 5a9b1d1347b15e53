package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lifeboard/lifeboard/internal/auth"
	"github.com/lifeboard/lifeboard/internal/day"
	"github.com/lifeboard/lifeboard/internal/habit"
	"github.com/lifeboard/lifeboard/internal/store"
	"github.com/lifeboard/lifeboard/internal/websocket"
)

type HabitHandler struct {
	tracker *habit.Tracker
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewHabitHandler(tracker *habit.Tracker, hub *websocket.Hub, logger *slog.Logger) *HabitHandler {
	return &HabitHandler{tracker: tracker, hub: hub, logger: logger}
}

func (h *HabitHandler) broadcast(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(userID, msg)
	}
}

// fail maps tracker errors onto responses.
func (h *HabitHandler) fail(w http.ResponseWriter, op string, err error) {
	var ve *habit.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, habit.ErrNotFound):
		writeError(w, http.StatusNotFound, "habit not found")
	default:
		h.logger.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+op)
	}
}

type habitRequest struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

func (h *HabitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req habitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	userID := auth.UserID(r.Context())
	created, err := h.tracker.Create(userID, habit.CreateInput{Name: req.Name, Icon: req.Icon, Color: req.Color})
	if err != nil {
		h.fail(w, "create habit", err)
		return
	}

	h.broadcast(userID, websocket.NewMessage("habit", "created", created.ID, nil))

	writeJSON(w, http.StatusCreated, created)
}

func parseHabitQuery(r *http.Request) (store.HabitQuery, error) {
	v := r.URL.Query()
	q := store.HabitQuery{
		Search: v.Get("search"),
		Color:  v.Get("color"),
		SortBy: v.Get("sort_by"),
		Order:  v.Get("order"),
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &q.Page}, {"limit", &q.Limit}} {
		s := v.Get(p.name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return q, &habit.ValidationError{Field: p.name, Message: p.name + " must be a positive integer"}
		}
		*p.dst = n
	}
	return q, nil
}

func (h *HabitHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseHabitQuery(r)
	if err != nil {
		h.fail(w, "list habits", err)
		return
	}

	res, err := h.tracker.List(auth.UserID(r.Context()), q)
	if err != nil {
		h.fail(w, "list habits", err)
		return
	}
	if res.Habits == nil {
		res.Habits = []habit.HabitSummary{}
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *HabitHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	res, err := h.tracker.Detail(auth.UserID(r.Context()), id)
	if err != nil {
		h.fail(w, "get habit", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *HabitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	userID := auth.UserID(r.Context())
	if err := h.tracker.Delete(userID, id); err != nil {
		h.fail(w, "delete habit", err)
		return
	}

	h.broadcast(userID, websocket.NewMessage("habit", "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}

func (h *HabitHandler) ToggleToday(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	userID := auth.UserID(r.Context())
	res, err := h.tracker.ToggleToday(userID, id)
	if err != nil {
		h.fail(w, "toggle habit", err)
		return
	}

	h.broadcastToggle(userID, res)
	writeJSON(w, http.StatusOK, res)
}

type toggleDateRequest struct {
	Date string `json:"date"`
}

func (h *HabitHandler) ToggleDate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req toggleDateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	d, err := day.Parse(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	userID := auth.UserID(r.Context())
	res, err := h.tracker.ToggleDate(userID, id, d)
	if err != nil {
		h.fail(w, "toggle habit", err)
		return
	}

	h.broadcastToggle(userID, res)
	writeJSON(w, http.StatusOK, res)
}

func (h *HabitHandler) broadcastToggle(userID int64, res *habit.ToggleResult) {
	if res.Message != "" {
		return
	}
	h.broadcast(userID, websocket.NewMessage("habit", "toggled", res.HabitID, map[string]any{
		"day":  res.Day.String(),
		"done": res.Done,
	}))
}
