package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/idgate/internal/gateway/service"
	"github.com/aussiebroadwan/idgate/pkg/api"
	"github.com/aussiebroadwan/idgate/pkg/httpx"
	"github.com/aussiebroadwan/idgate/pkg/slogx"
)

func (r *Router) registerMFA() {
	limited := httpx.RateLimitByIP(httpx.StrictLimit)

	r.Mux.Handle("POST /v1/mfa/enroll", r.admin(limited(http.HandlerFunc(r.handleMFAEnroll))))
	r.Mux.Handle("POST /v1/mfa/activate", r.admin(limited(http.HandlerFunc(r.handleMFAActivate))))
	r.Mux.Handle("POST /v1/mfa/verify", limited(http.HandlerFunc(r.handleMFAVerify)))
}

type mfaRequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"code,omitempty"`
}

func (r *Router) handleMFAEnroll(w http.ResponseWriter, req *http.Request) {
	var body mfaRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.UserID == "" {
		api.ErrInvalidRequest.WriteError(w)
		return
	}

	enrollment, err := r.MFAService.Enroll(req.Context(), body.UserID)
	if err != nil {
		writeMFAError(w, req, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, api.MFAEnrollResponse{
		Secret:  enrollment.Secret,
		QRCode:  enrollment.URL,
		Issuer:  r.MFAService.Issuer,
		Account: enrollment.Account,
	})
}

func (r *Router) handleMFAActivate(w http.ResponseWriter, req *http.Request) {
	var body mfaRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.UserID == "" || body.Code == "" {
		api.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := r.MFAService.Activate(req.Context(), body.UserID, body.Code); err != nil {
		writeMFAError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleMFAVerify(w http.ResponseWriter, req *http.Request) {
	var body mfaRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.UserID == "" || body.Code == "" {
		api.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := r.MFAService.Verify(req.Context(), body.UserID, body.Code); err != nil {
		writeMFAError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeMFAError(w http.ResponseWriter, req *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		api.ErrNotFound.WriteError(w)
	case errors.Is(err, service.ErrMFANotEnrolled):
		api.ErrInvalidRequest.WithDescription("mfa is not enrolled for this user").WriteError(w)
	case errors.Is(err, service.ErrMFAAlreadyEnabled):
		api.ErrInvalidRequest.WithDescription("mfa is already enabled for this user").WriteError(w)
	case errors.Is(err, service.ErrInvalidTOTPCode):
		api.ErrInvalidGrant.WithDescription("the code is invalid").WriteError(w)
	default:
		slogx.FromContext(req.Context()).Error("mfa operation failed", "err", err)
		api.ErrServerError.WriteError(w)
	}
}
