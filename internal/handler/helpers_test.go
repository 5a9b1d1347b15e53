package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/lifeboard/lifeboard/internal/auth"
	"github.com/lifeboard/lifeboard/internal/database"
	"github.com/lifeboard/lifeboard/internal/habit"
	"github.com/lifeboard/lifeboard/internal/store"
)

type testEnv struct {
	mux    *http.ServeMux
	alice  int64
	bob    int64
	tokens *auth.Tokens
	users  *store.UserStore
}

// asUser injects the caller id taken from the X-Test-User header.
func asUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.Header.Get("X-Test-User"), 10, 64)
		ctx := auth.WithAuth(r.Context(), auth.AuthContext{UserID: id})
		next(w, r.WithContext(ctx))
	}
}

func newTestEnv(t *testing.T, policy habit.Policy) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := store.NewUserStore(db)
	alice, err := users.Create("alice@example.com", "Alice", "hash")
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}
	bob, err := users.Create("bob@example.com", "Bob", "hash")
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}

	tokens := auth.NewTokens("test-secret", time.Hour)
	ah := NewAuthHandler(users, tokens, logger)
	hh := NewHabitHandler(habit.NewTracker(db, policy), nil, logger)
	th := NewTaskHandler(store.NewTaskStore(db), nil, logger)
	nh := NewNoteHandler(store.NewNoteStore(db), nil, logger)
	dh := NewDaySummaryHandler(store.NewDaySummaryStore(db), nil, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", ah.Register)
	mux.HandleFunc("POST /api/auth/login", ah.Login)
	mux.HandleFunc("GET /api/auth/me", asUser(ah.Me))

	mux.HandleFunc("GET /api/habits", asUser(hh.List))
	mux.HandleFunc("POST /api/habits", asUser(hh.Create))
	mux.HandleFunc("GET /api/habits/{id}", asUser(hh.Get))
	mux.HandleFunc("DELETE /api/habits/{id}", asUser(hh.Delete))
	mux.HandleFunc("POST /api/habits/{id}/toggle-today", asUser(hh.ToggleToday))
	mux.HandleFunc("POST /api/habits/{id}/toggle-date", asUser(hh.ToggleDate))

	mux.HandleFunc("GET /api/tasks", asUser(th.List))
	mux.HandleFunc("POST /api/tasks", asUser(th.Create))
	mux.HandleFunc("PUT /api/tasks/{id}", asUser(th.Update))
	mux.HandleFunc("DELETE /api/tasks/{id}", asUser(th.Delete))

	mux.HandleFunc("GET /api/notes", asUser(nh.List))
	mux.HandleFunc("POST /api/notes", asUser(nh.Create))
	mux.HandleFunc("PUT /api/notes/{id}", asUser(nh.Update))
	mux.HandleFunc("DELETE /api/notes/{id}", asUser(nh.Delete))
	mux.HandleFunc("POST /api/notes/{id}/pin", asUser(nh.TogglePinned))

	mux.HandleFunc("GET /api/day-summaries", asUser(dh.List))
	mux.HandleFunc("POST /api/day-summaries", asUser(dh.Create))
	mux.HandleFunc("PUT /api/day-summaries/{id}", asUser(dh.Update))
	mux.HandleFunc("DELETE /api/day-summaries/{id}", asUser(dh.Delete))

	return &testEnv{mux: mux, alice: alice.ID, bob: bob.ID, tokens: tokens, users: users}
}

func (e *testEnv) do(t *testing.T, userID int64, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-Test-User", strconv.FormatInt(userID, 10))
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, status, rec.Body.String())
	}
}
