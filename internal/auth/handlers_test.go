package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fitmenu/mealplanner/internal/config"
	"github.com/fitmenu/mealplanner/internal/userctx"
)

func testConfig(authRequired bool) *config.Config {
	return &config.Config{
		Env:           "local",
		AuthRequired:  authRequired,
		JWTSecret:     "test-secret",
		JWTIssuer:     "mealplanner",
		JWTTTLMinutes: 60,
	}
}

func TestDevAuthAndVerify(t *testing.T) {
	cfg := testConfig(true)
	service := NewService(cfg)
	handlers := NewHandlers(service)

	body, _ := json.Marshal(map[string]string{"user_id": "userA"})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/dev", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handlers.HandleDevAuth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp DevAuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("expected Bearer token type, got %q", resp.TokenType)
	}
	if resp.ExpiresIn != 3600 {
		t.Errorf("expected 3600s expiry, got %d", resp.ExpiresIn)
	}

	sub, err := service.VerifyJWT(resp.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sub != "userA" {
		t.Errorf("expected sub userA, got %q", sub)
	}
}

func TestDevAuthDefaultsUser(t *testing.T) {
	service := NewService(testConfig(true))
	handlers := NewHandlers(service)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/dev", nil)
	rec := httptest.NewRecorder()
	handlers.HandleDevAuth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp DevAuthResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	sub, err := service.VerifyJWT(resp.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sub != "dev-user" {
		t.Errorf("expected dev-user, got %q", sub)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewService(testConfig(true))
	token, err := issuer.generateJWTWithTTL("userA", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	other := testConfig(true)
	other.JWTSecret = "different-secret"
	if _, err := NewService(other).VerifyJWT(token); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestRequireAuth(t *testing.T) {
	cfg := testConfig(true)
	service := NewService(cfg)
	mw := NewMiddleware(cfg, service)

	var gotUser string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = userctx.GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := mw.RequireAuth(next)

	// No header: 401.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/meals", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	// Garbage token: 401.
	req := httptest.NewRequest(http.MethodGet, "/v1/meals", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", rec.Code)
	}

	// Valid token passes and the subject lands in context.
	resp, err := service.SignInDev("userB")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/v1/meals", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if gotUser != "userB" {
		t.Errorf("expected userB in context, got %q", gotUser)
	}

	// Public paths skip auth entirely.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for public path, got %d", rec.Code)
	}
}

func TestRequireAuthDisabled(t *testing.T) {
	cfg := testConfig(false)
	mw := NewMiddleware(cfg, NewService(cfg))

	var gotUser string
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = userctx.GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// X-User-ID header wins.
	req := httptest.NewRequest(http.MethodGet, "/v1/meals", nil)
	req.Header.Set("X-User-ID", "alice")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || gotUser != "alice" {
		t.Fatalf("expected 200/alice, got %d/%q", rec.Code, gotUser)
	}

	// No header falls back to "default".
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/meals", nil))
	if gotUser != "default" {
		t.Errorf("expected default user, got %q", gotUser)
	}
}
