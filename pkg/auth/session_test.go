package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "test-signing-secret"

func newTestIssuer(t *testing.T, ttl time.Duration) *SessionIssuer {
	t.Helper()
	issuer, err := NewSessionIssuer(testSecret, ttl, false)
	if err != nil {
		t.Fatalf("NewSessionIssuer() failed: %v", err)
	}
	return issuer
}

func TestNewSessionIssuer_EmptySecret(t *testing.T) {
	if _, err := NewSessionIssuer("", time.Hour, false); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestSessionIssuer_IssueAndValidate(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)
	address := "0x52908400098527886E0F7030069857D2E4169EE7"

	token, err := issuer.Issue(address)
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	got, err := issuer.Validate(token)
	if err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if got != NormalizeAddress(address) {
		t.Fatalf("Validate() = %s, want %s", got, NormalizeAddress(address))
	}
}

func TestSessionIssuer_ExpiredDistinctFromInvalid(t *testing.T) {
	shortIssuer := newTestIssuer(t, time.Millisecond)
	token, err := shortIssuer.Issue("0x52908400098527886E0F7030069857D2E4169EE7")
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, err := shortIssuer.Validate(token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}

	if _, err := shortIssuer.Validate("not-a-jwt"); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid for garbage token, got %v", err)
	}
}

func TestSessionIssuer_ForeignKeyRejected(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)
	otherIssuer, err := NewSessionIssuer("different-secret", time.Hour, false)
	if err != nil {
		t.Fatalf("NewSessionIssuer() failed: %v", err)
	}

	token, err := otherIssuer.Issue("0x52908400098527886E0F7030069857D2E4169EE7")
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	if _, err := issuer.Validate(token); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid for token signed with a different key, got %v", err)
	}
}

func TestSessionIssuer_Cookies(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)

	rec := httptest.NewRecorder()
	issuer.SetCookie(rec, "token-value")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != CookieName {
		t.Errorf("cookie name = %s, want %s", c.Name, CookieName)
	}
	if !c.HttpOnly {
		t.Error("cookie must be HTTP-only")
	}
	if c.SameSite != http.SameSiteStrictMode {
		t.Error("cookie must be SameSite=Strict")
	}
	if c.Path != "/" {
		t.Errorf("cookie path = %s, want /", c.Path)
	}
	if c.MaxAge != 3600 {
		t.Errorf("cookie max-age = %d, want 3600", c.MaxAge)
	}

	rec = httptest.NewRecorder()
	issuer.ClearCookie(rec)
	cookies = rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c = cookies[0]
	if c.Value != "" {
		t.Error("cleared cookie must have an empty value")
	}
	if !c.Expires.Before(time.Now()) {
		t.Error("cleared cookie must already be expired")
	}
}
