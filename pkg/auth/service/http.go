package service

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/goalstake/goalstake/pkg/app/errors"
	apphttp "github.com/goalstake/goalstake/pkg/app/http"
	"github.com/goalstake/goalstake/pkg/auth"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	issuer  *auth.SessionIssuer
	logger  *zap.Logger
}

// RegisterRoutes registers the wallet sign-in endpoints on the given chi router.
// The issuer is needed here as well as in the service because the HTTP layer
// owns the session cookie.
func RegisterRoutes(r chi.Router, service Service, issuer *auth.SessionIssuer, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		issuer:  issuer,
		logger:  logger,
	}

	r.Post("/nonce", apphttp.HandleError(h.nonce))
	r.Post("/verify", apphttp.HandleError(h.verify))
	r.Get("/validate", apphttp.HandleError(h.validate))
	r.Post("/sign-out", apphttp.HandleError(h.signOut))
}

// nonce handles challenge requests
func (h *HTTP) nonce(w http.ResponseWriter, r *http.Request) error {
	var req auth.NonceRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	resp, err := h.service.IssueNonce(r.Context(), &req)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, resp)
	return nil
}

// verify handles signature verification and session issuance. On success
// the session token is set as an HttpOnly cookie and echoed in the body.
func (h *HTTP) verify(w http.ResponseWriter, r *http.Request) error {
	var req auth.VerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	resp, err := h.service.Verify(r.Context(), &req)
	if err != nil {
		return err
	}

	h.issuer.SetCookie(w, resp.Token)
	apphttp.WriteJSON(w, http.StatusOK, resp)
	return nil
}

// validate reports the wallet address bound to the session cookie
func (h *HTTP) validate(w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil {
		return apperrors.UnAuthorizedError(err, "no authentication token found")
	}

	resp, err := h.service.Validate(r.Context(), cookie.Value)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, resp)
	return nil
}

// signOut clears the session cookie. Tokens are stateless so there is
// nothing server-side to revoke.
func (h *HTTP) signOut(w http.ResponseWriter, _ *http.Request) error {
	h.issuer.ClearCookie(w)
	apphttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
	return nil
}

func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}
	return nil
}
