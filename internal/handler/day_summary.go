package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/lifeboard/lifeboard/internal/auth"
	"github.com/lifeboard/lifeboard/internal/day"
	"github.com/lifeboard/lifeboard/internal/model"
	"github.com/lifeboard/lifeboard/internal/store"
	"github.com/lifeboard/lifeboard/internal/websocket"
)

type DaySummaryHandler struct {
	summaryStore *store.DaySummaryStore
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewDaySummaryHandler(ss *store.DaySummaryStore, hub *websocket.Hub, logger *slog.Logger) *DaySummaryHandler {
	return &DaySummaryHandler{summaryStore: ss, hub: hub, logger: logger}
}

func (h *DaySummaryHandler) broadcast(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(userID, msg)
	}
}

type daySummaryRequest struct {
	Date         string  `json:"date"`
	Mood         *int    `json:"mood"`
	Productivity *int    `json:"productivity"`
	Journal      *string `json:"journal"`
}

func (req daySummaryRequest) validate() string {
	if req.Mood != nil && (*req.Mood < 1 || *req.Mood > 5) {
		return "mood must be between 1 and 5"
	}
	if req.Productivity != nil && (*req.Productivity < 1 || *req.Productivity > 5) {
		return "productivity must be between 1 and 5"
	}
	return ""
}

func (req daySummaryRequest) patch() store.DaySummaryPatch {
	return store.DaySummaryPatch{Mood: req.Mood, Productivity: req.Productivity, Journal: req.Journal}
}

// Create saves the summary for a date. A second save for the same date
// updates the existing summary and answers 200 instead of 201.
func (h *DaySummaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req daySummaryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	d, err := day.Parse(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	userID := auth.UserID(r.Context())
	summary, created, err := h.summaryStore.Save(userID, d, req.patch())
	if err != nil {
		h.logger.Error("save day summary", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save day summary")
		return
	}

	if created {
		h.broadcast(userID, websocket.NewMessage("day_summary", "created", summary.ID, nil))
		writeJSON(w, http.StatusCreated, summary)
		return
	}
	h.broadcast(userID, websocket.NewMessage("day_summary", "updated", summary.ID, nil))
	writeJSON(w, http.StatusOK, summary)
}

// List answers ?date=YYYY-MM-DD with that day's summary (or null), and
// ?year=&month= with every summary of the month.
func (h *DaySummaryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	v := r.URL.Query()

	if s := v.Get("date"); s != "" {
		d, err := day.Parse(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		summary, err := h.summaryStore.GetByDate(userID, d)
		if err != nil {
			h.logger.Error("get day summary", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get day summary")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
		return
	}

	year, err := strconv.Atoi(v.Get("year"))
	if err != nil || year < 1 {
		writeError(w, http.StatusBadRequest, "year is required")
		return
	}
	month, err := strconv.Atoi(v.Get("month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}

	summaries, err := h.summaryStore.ListRange(userID, day.MonthRange(year, time.Month(month)))
	if err != nil {
		h.logger.Error("list day summaries", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list day summaries")
		return
	}
	if summaries == nil {
		summaries = []model.DaySummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": summaries})
}

func (h *DaySummaryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req daySummaryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	userID := auth.UserID(r.Context())
	summary, err := h.summaryStore.Update(userID, id, req.patch())
	if err != nil {
		h.logger.Error("update day summary", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update day summary")
		return
	}
	if summary == nil {
		writeError(w, http.StatusNotFound, "day summary not found")
		return
	}

	h.broadcast(userID, websocket.NewMessage("day_summary", "updated", id, nil))

	writeJSON(w, http.StatusOK, summary)
}

func (h *DaySummaryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	userID := auth.UserID(r.Context())
	deleted, err := h.summaryStore.Delete(userID, id)
	if err != nil {
		h.logger.Error("delete day summary", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete day summary")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "day summary not found")
		return
	}

	h.broadcast(userID, websocket.NewMessage("day_summary", "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}
