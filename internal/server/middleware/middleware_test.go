package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"robogo/backend/internal/security"
	sessiondomain "robogo/backend/internal/session/domain"
)

func TestAuth_InjectsScope(t *testing.T) {
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, _, _, err := tokens.IssueAccess("u1", "d1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	var got sessiondomain.Scope
	var ok bool
	handler := Auth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = GetScope(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/monitoring/start", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: %d", rr.Code)
	}
	if !ok || got.UserID != "u1" || got.DeviceID != "d1" {
		t.Errorf("scope: %+v ok=%v", got, ok)
	}
}

func TestAuth_RejectsMissingOrBadToken(t *testing.T) {
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	reached := false
	handler := Auth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	for _, header := range []string{"", "Bearer garbage", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/monitoring/start", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status %d, want 401", header, rr.Code)
		}
	}
	if reached {
		t.Error("handler reached without a valid token")
	}
}

func TestGetScope_AbsentContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := GetScope(req.Context()); ok {
		t.Error("scope present on bare context")
	}
}
