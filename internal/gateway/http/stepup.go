package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/idgate/internal/gateway/service"
	"github.com/aussiebroadwan/idgate/internal/gateway/stepup"
	"github.com/aussiebroadwan/idgate/pkg/api"
	"github.com/aussiebroadwan/idgate/pkg/httpx"
	"github.com/aussiebroadwan/idgate/pkg/slogx"
)

func (r *Router) registerStepUp() {
	limited := httpx.RateLimitByIP(httpx.StrictLimit)

	r.Mux.Handle("POST /v1/stepup/evaluate", limited(http.HandlerFunc(r.handleStepUpEvaluate)))
}

type stepUpEvaluateRequest struct {
	ClientID      string  `json:"client_id,omitempty"`
	UserID        string  `json:"user_id,omitempty"`
	DeviceTrusted bool    `json:"device_trusted,omitempty"`
	RiskScore     float64 `json:"risk_score,omitempty"`
}

// handleStepUpEvaluate runs the exemption pipeline for a described
// authentication attempt and reports whether an MFA challenge is required.
func (r *Router) handleStepUpEvaluate(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	log := slogx.FromContext(ctx)

	var body stepUpEvaluateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		api.ErrInvalidRequest.WriteError(w)
		return
	}

	eval := stepup.Request{
		DeviceTrusted: body.DeviceTrusted,
		RiskScore:     body.RiskScore,
	}

	if body.ClientID != "" {
		client, err := r.ClientService.Get(ctx, body.ClientID)
		switch {
		case err == nil:
			eval.Client = &client
		case errors.Is(err, service.ErrClientNotFound):
			// Unknown clients evaluate the same as absent ones.
		default:
			log.Error("step-up client lookup failed", "err", err)
			api.ErrServerError.WriteError(w)
			return
		}
	}

	if body.UserID != "" {
		user, err := r.UserService.Get(ctx, body.UserID)
		switch {
		case err == nil:
			eval.User = &user
		case errors.Is(err, service.ErrUserNotFound):
		default:
			log.Error("step-up user lookup failed", "err", err)
			api.ErrServerError.WriteError(w)
			return
		}
	}

	decision := r.StepUp.Evaluate(ctx, eval)
	if r.metrics != nil {
		label := "challenge"
		if decision.Exempt {
			label = "exempt"
		}
		r.metrics.StepUpDecisions.WithLabelValues(label).Inc()
	}

	httpx.WriteJSON(w, http.StatusOK, api.StepUpDecisionResponse{
		ChallengeRequired: !decision.Exempt,
		ExemptedBy:        decision.MatchedFilter,
	})
}
