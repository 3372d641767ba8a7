package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func echoRequestID(t *testing.T, req *http.Request) (string, *httptest.ResponseRecorder) {
	t.Helper()

	var ctxID string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return ctxID, rec
}

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctxID, rec := echoRequestID(t, req)

	if ctxID == "" {
		t.Fatal("expected request ID in handler context")
	}
	if len(ctxID) != 16 {
		t.Errorf("expected 16-character request ID, got %d: %q", len(ctxID), ctxID)
	}
	for _, c := range ctxID {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Errorf("expected lowercase hex, found %q in %q", c, ctxID)
		}
	}

	if got := rec.Header().Get("X-Request-ID"); got != ctxID {
		t.Errorf("response header %q does not match context ID %q", got, ctxID)
	}
}

func TestRequestIDHonorsClientHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "client-request-123")

	ctxID, rec := echoRequestID(t, req)

	if ctxID != "client-request-123" {
		t.Errorf("expected client-supplied ID in context, got %q", ctxID)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "client-request-123" {
		t.Errorf("expected client-supplied ID echoed in response, got %q", got)
	}
}

func TestRequestIDUniquePerRequest(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		ctxID, _ := echoRequestID(t, req)
		seen[ctxID] = true
	}
	if len(seen) != 100 {
		t.Errorf("expected 100 distinct request IDs, got %d", len(seen))
	}
}

func TestGetRequestIDWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if id := GetRequestID(req.Context()); id != "" {
		t.Errorf("expected empty ID without middleware, got %q", id)
	}
}

func TestNewRequestIDShape(t *testing.T) {
	id1 := newRequestID()
	id2 := newRequestID()

	if len(id1) != 16 || len(id2) != 16 {
		t.Fatalf("expected 16-character IDs, got %q and %q", id1, id2)
	}
	if id1 == id2 {
		t.Error("expected consecutive IDs to differ")
	}
}
