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
	"github.com/goalstake/goalstake/pkg/goal"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes registers the goal endpoints on the given chi router. The
// router is expected to sit behind the session middleware; every handler
// reads the caller's wallet address from the request context.
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Post("/goals/create", apphttp.HandleError(h.create))
	r.Get("/goals/fetch", apphttp.HandleError(h.fetch))
	r.Post("/referee/complete", apphttp.HandleError(h.complete))
	r.Post("/claim/claim-funds", apphttp.HandleError(h.claimFunds))
}

// create handles goal persistence after the escrow transaction confirmed
func (h *HTTP) create(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerAddress(r)
	if err != nil {
		return err
	}

	var req goal.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	created, err := h.service.CreateGoal(r.Context(), caller, &req)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusCreated, goal.NewResponse(created))
	return nil
}

// fetch lists the caller's goals for the requested role
func (h *HTTP) fetch(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerAddress(r)
	if err != nil {
		return err
	}

	goals, err := h.service.ListGoals(r.Context(), caller, r.URL.Query().Get("role"))
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, map[string]any{
		"goals": goal.NewResponseList(goals),
	})
	return nil
}

// complete handles the referee confirming a goal was met
func (h *HTTP) complete(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerAddress(r)
	if err != nil {
		return err
	}

	var req goal.TransitionRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	updated, err := h.service.MarkMet(r.Context(), caller, &req)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, goal.NewResponse(updated))
	return nil
}

// claimFunds handles both success and failure claims; the service picks the
// claim by the caller's role on the goal.
func (h *HTTP) claimFunds(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerAddress(r)
	if err != nil {
		return err
	}

	var req goal.TransitionRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	updated, err := h.service.ClaimFunds(r.Context(), caller, &req)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, goal.NewResponse(updated))
	return nil
}

func callerAddress(r *http.Request) (string, error) {
	caller, ok := auth.WalletAddressFromContext(r.Context())
	if !ok || caller == "" {
		return "", apperrors.UnAuthorizedError(nil, "no authentication token found")
	}
	return caller, nil
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
