package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/goalstake/goalstake/pkg/app/errors"
	"github.com/goalstake/goalstake/pkg/auth"
)

// fakeAuthService implements Service with canned responses for HTTP tests
type fakeAuthService struct {
	nonceResp    *auth.NonceResponse
	nonceErr     error
	verifyResp   *auth.VerifyResponse
	verifyErr    error
	validateResp *auth.ValidateResponse
	validateErr  error

	lastValidateToken string
}

func (f *fakeAuthService) IssueNonce(context.Context, *auth.NonceRequest) (*auth.NonceResponse, error) {
	return f.nonceResp, f.nonceErr
}

func (f *fakeAuthService) Verify(context.Context, *auth.VerifyRequest) (*auth.VerifyResponse, error) {
	return f.verifyResp, f.verifyErr
}

func (f *fakeAuthService) Validate(_ context.Context, token string) (*auth.ValidateResponse, error) {
	f.lastValidateToken = token
	return f.validateResp, f.validateErr
}

func newAuthTestServer(t *testing.T, svc Service) http.Handler {
	t.Helper()

	issuer, err := auth.NewSessionIssuer(testJWTSecret, time.Hour, false)
	if err != nil {
		t.Fatalf("NewSessionIssuer() failed: %v", err)
	}

	r := chi.NewRouter()
	RegisterRoutes(r, svc, issuer, zap.NewNop())
	return r
}

func decodeErrorBody(t *testing.T, body []byte) (string, int) {
	t.Helper()

	var got struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	return got.Error, got.Code
}

func TestAuthHTTP_Nonce_InvalidJSON(t *testing.T) {
	handler := newAuthTestServer(t, &fakeAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/nonce", bytes.NewBufferString("{invalid"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	msg, code := decodeErrorBody(t, rec.Body.Bytes())
	if msg != "invalid JSON" {
		t.Fatalf("expected error %q, got %q", "invalid JSON", msg)
	}
	if code != http.StatusBadRequest {
		t.Fatalf("expected code %d, got %d", http.StatusBadRequest, code)
	}
}

func TestAuthHTTP_Nonce_ReturnsChallenge(t *testing.T) {
	expiry := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Second)
	handler := newAuthTestServer(t, &fakeAuthService{
		nonceResp: &auth.NonceResponse{Nonce: "challenge-1", ExpiresAt: expiry},
	})

	req := httptest.NewRequest(http.MethodPost, "/nonce",
		bytes.NewBufferString(`{"address":"0x1111111111111111111111111111111111111111"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var got auth.NonceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if got.Nonce != "challenge-1" {
		t.Fatalf("expected nonce %q, got %q", "challenge-1", got.Nonce)
	}
	if !got.ExpiresAt.Equal(expiry) {
		t.Fatalf("expected expiry %v, got %v", expiry, got.ExpiresAt)
	}
}

func TestAuthHTTP_Verify_SetsSessionCookie(t *testing.T) {
	handler := newAuthTestServer(t, &fakeAuthService{
		verifyResp: &auth.VerifyResponse{Token: "session-token"},
	})

	req := httptest.NewRequest(http.MethodPost, "/verify",
		bytes.NewBufferString(`{"address":"0x1111111111111111111111111111111111111111","nonce":"n","signature":"0xsig"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var got auth.VerifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if got.Token != "session-token" {
		t.Fatalf("expected token %q, got %q", "session-token", got.Token)
	}

	cookies := rec.Result().Cookies()
	var session *http.Cookie
	for _, c := range cookies {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	if session == nil {
		t.Fatalf("expected %q cookie to be set", auth.CookieName)
	}
	if session.Value != "session-token" {
		t.Fatalf("expected cookie value %q, got %q", "session-token", session.Value)
	}
	if !session.HttpOnly {
		t.Fatal("expected cookie to be HttpOnly")
	}
	if session.SameSite != http.SameSiteStrictMode {
		t.Fatalf("expected SameSite=Strict, got %v", session.SameSite)
	}
}

func TestAuthHTTP_Verify_UnauthorizedPassesThrough(t *testing.T) {
	handler := newAuthTestServer(t, &fakeAuthService{
		verifyErr: apperrors.UnAuthorizedError(ErrNonceInvalid, "invalid or expired nonce"),
	})

	req := httptest.NewRequest(http.MethodPost, "/verify",
		bytes.NewBufferString(`{"address":"0x1111111111111111111111111111111111111111","nonce":"n","signature":"0xsig"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	msg, _ := decodeErrorBody(t, rec.Body.Bytes())
	if msg != "invalid or expired nonce" {
		t.Fatalf("expected error %q, got %q", "invalid or expired nonce", msg)
	}

	// No session cookie on a failed verification
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			t.Fatal("expected no session cookie on failure")
		}
	}
}

func TestAuthHTTP_Validate_MissingCookie(t *testing.T) {
	handler := newAuthTestServer(t, &fakeAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/validate", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	msg, _ := decodeErrorBody(t, rec.Body.Bytes())
	if msg != "no authentication token found" {
		t.Fatalf("expected error %q, got %q", "no authentication token found", msg)
	}
}

func TestAuthHTTP_Validate_ReturnsWalletAddress(t *testing.T) {
	svc := &fakeAuthService{
		validateResp: &auth.ValidateResponse{WalletAddress: "0x1111111111111111111111111111111111111111"},
	}
	handler := newAuthTestServer(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/validate", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "session-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if svc.lastValidateToken != "session-token" {
		t.Fatalf("expected cookie token to reach service, got %q", svc.lastValidateToken)
	}

	var got auth.ValidateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if got.WalletAddress != "0x1111111111111111111111111111111111111111" {
		t.Fatalf("unexpected wallet address %q", got.WalletAddress)
	}
}

func TestAuthHTTP_SignOut_ClearsCookie(t *testing.T) {
	handler := newAuthTestServer(t, &fakeAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/sign-out", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var cleared *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			cleared = c
		}
	}
	if cleared == nil {
		t.Fatalf("expected %q cookie in response", auth.CookieName)
	}
	if cleared.Value != "" {
		t.Fatalf("expected empty cookie value, got %q", cleared.Value)
	}
	if cleared.MaxAge >= 0 {
		t.Fatalf("expected negative MaxAge, got %d", cleared.MaxAge)
	}
}
