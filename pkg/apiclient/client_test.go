package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goalstake/goalstake/pkg/auth"
	"github.com/goalstake/goalstake/pkg/goal"
)

const testAddress = "0x1111111111111111111111111111111111111111"

// newAuthStubServer fakes the auth endpoints: /verify sets a session cookie
// and /validate requires it.
func newAuthStubServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/nonce", func(w http.ResponseWriter, r *http.Request) {
		var req auth.NonceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad nonce request: %v", err)
		}
		json.NewEncoder(w).Encode(auth.NonceResponse{Nonce: "challenge-1"})
	})

	mux.HandleFunc("POST /api/auth/verify", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: auth.CookieName, Value: "session-1", Path: "/"})
		json.NewEncoder(w).Encode(auth.VerifyResponse{Token: "session-1"})
	})

	mux.HandleFunc("GET /api/auth/validate", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.CookieName)
		if err != nil || cookie.Value != "session-1" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"error": "no authentication token found",
				"code":  http.StatusUnauthorized,
			})
			return
		}
		json.NewEncoder(w).Encode(auth.ValidateResponse{WalletAddress: testAddress})
	})

	return httptest.NewServer(mux)
}

func TestClient_SessionCookieFlowsAcrossRequests(t *testing.T) {
	server := newAuthStubServer(t)
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}
	ctx := context.Background()

	// Before verification the session is rejected
	_, err = client.Validate(ctx)
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected 401 APIError, got %v", err)
	}

	nonce, err := client.RequestNonce(ctx, testAddress)
	if err != nil {
		t.Fatalf("RequestNonce() failed: %v", err)
	}
	if nonce.Nonce != "challenge-1" {
		t.Fatalf("expected nonce %q, got %q", "challenge-1", nonce.Nonce)
	}

	if _, err := client.Verify(ctx, testAddress, nonce.Nonce, "0xsig"); err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}

	// The cookie set by verify is replayed automatically
	validated, err := client.Validate(ctx)
	if err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if validated.WalletAddress != testAddress {
		t.Fatalf("expected wallet address %q, got %q", testAddress, validated.WalletAddress)
	}
}

func TestClient_APIErrorCarriesServerMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"error": "goal status does not permit this transition",
			"code":  http.StatusConflict,
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}

	_, err = client.ClaimFunds(context.Background(), &goal.TransitionRequest{ContractGoalID: "1"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !IsStatus(err, http.StatusConflict) {
		t.Fatalf("expected 409 APIError, got %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Message != "goal status does not permit this transition" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestClient_FetchGoals_RoleQuery(t *testing.T) {
	var gotRole string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole = r.URL.Query().Get("role")
		json.NewEncoder(w).Encode(map[string]any{"goals": []*goal.Response{{ContractGoalID: "42"}}})
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}

	goals, err := client.FetchGoals(context.Background(), "referee")
	if err != nil {
		t.Fatalf("FetchGoals() failed: %v", err)
	}
	if gotRole != "referee" {
		t.Fatalf("expected role query %q, got %q", "referee", gotRole)
	}
	if len(goals) != 1 || goals[0].ContractGoalID != "42" {
		t.Fatalf("unexpected goals %v", goals)
	}
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}

	_, err = client.Validate(context.Background())
	if !IsStatus(err, http.StatusBadGateway) {
		t.Fatalf("expected 502 APIError, got %v", err)
	}
}
