package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lifeboard/lifeboard/internal/auth"
)

func protected(t *testing.T, tokens *auth.Tokens, reached *int64) http.Handler {
	t.Helper()
	return RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*reached = auth.UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRequireAuthMissingToken(t *testing.T) {
	var reached int64
	handler := protected(t, auth.NewTokens("s3cret", time.Hour), &reached)

	req := httptest.NewRequest("GET", "/api/habits", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if reached != 0 {
		t.Error("handler should not be reached")
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	var reached int64
	handler := protected(t, auth.NewTokens("s3cret", time.Hour), &reached)

	other, _, _ := auth.NewTokens("other", time.Hour).Issue(1, "a@example.com")

	for _, header := range []string{"Bearer garbage", "Bearer " + other} {
		req := httptest.NewRequest("GET", "/api/habits", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("%q: status = %d, want %d", header, rec.Code, http.StatusForbidden)
		}
	}
	if reached != 0 {
		t.Error("handler should not be reached")
	}
}

func TestRequireAuthValidToken(t *testing.T) {
	tokens := auth.NewTokens("s3cret", time.Hour)
	var reached int64
	handler := protected(t, tokens, &reached)

	raw, _, err := tokens.Issue(7, "a@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/habits", nil)
	req.Header.Set("Authorization", "bearer "+raw)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if reached != 7 {
		t.Errorf("user id = %d, want 7", reached)
	}
}

func TestRequireAuthQueryToken(t *testing.T) {
	tokens := auth.NewTokens("s3cret", time.Hour)
	var reached int64
	handler := protected(t, tokens, &reached)

	raw, _, _ := tokens.Issue(9, "a@example.com")
	req := httptest.NewRequest("GET", "/ws?access_token="+raw, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if reached != 9 {
		t.Errorf("user id = %d, want 9", reached)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if seen == "" {
		t.Fatal("expected a generated request id")
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("header = %q, want %q", got, seen)
	}

	const incoming = "4f1c2a9e-8d3b-4e5f-9a6b-7c8d9e0f1a2b"
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != incoming {
		t.Errorf("request id = %q, want incoming %q", seen, incoming)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "not a uuid\n")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "not a uuid\n" {
		t.Error("malformed incoming id should be replaced")
	}
}
