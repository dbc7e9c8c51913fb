package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/idgate/internal/gateway/domain"
	"github.com/aussiebroadwan/idgate/pkg/api"
	"github.com/aussiebroadwan/idgate/pkg/httpx"
)

func (r *Router) registerUsers() {
	limited := httpx.RateLimitBySubject(httpx.ModerateLimit)

	r.Mux.Handle("POST /v1/users", r.admin(limited(http.HandlerFunc(r.handleUserCreate))))
	r.Mux.Handle("GET /v1/users/{userID}", r.admin(limited(http.HandlerFunc(r.handleUserGet))))
	r.Mux.Handle("PATCH /v1/users/{userID}", r.admin(limited(http.HandlerFunc(r.handleUserUpdate))))
	r.Mux.Handle("DELETE /v1/users/{userID}", r.admin(limited(http.HandlerFunc(r.handleUserDelete))))
	r.Mux.Handle("GET /v1/domains/{domain}/users", r.admin(limited(http.HandlerFunc(r.handleUserPage))))
}

func (r *Router) handleUserCreate(w http.ResponseWriter, req *http.Request) {
	var body api.CreateUserRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		api.ErrInvalidRequest.WriteError(w)
		return
	}

	u, err := r.UserService.Create(req.Context(),
		body.Domain, body.Username, body.Password,
		body.FirstName, body.LastName, body.Email,
	)
	if err != nil {
		writeAdminError(w, req, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, userView(u))
}

func (r *Router) handleUserGet(w http.ResponseWriter, req *http.Request) {
	u, err := r.UserService.Get(req.Context(), req.PathValue("userID"))
	if err != nil {
		writeAdminError(w, req, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userView(u))
}

func (r *Router) handleUserUpdate(w http.ResponseWriter, req *http.Request) {
	var body api.UpdateUserRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		api.ErrInvalidRequest.WriteError(w)
		return
	}

	u, err := r.UserService.Update(req.Context(), req.PathValue("userID"),
		body.FirstName, body.LastName, body.Email,
	)
	if err != nil {
		writeAdminError(w, req, err)
		return
	}

	if body.Password != "" {
		u, err = r.UserService.SetPassword(req.Context(), u.ID, body.Password)
		if err != nil {
			writeAdminError(w, req, err)
			return
		}
	}
	httpx.WriteJSON(w, http.StatusOK, userView(u))
}

func (r *Router) handleUserDelete(w http.ResponseWriter, req *http.Request) {
	if err := r.UserService.Delete(req.Context(), req.PathValue("userID")); err != nil {
		writeAdminError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleUserPage(w http.ResponseWriter, req *http.Request) {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("size"))

	result, err := r.UserService.Page(req.Context(), req.PathValue("domain"), page, size)
	if err != nil {
		writeAdminError(w, req, err)
		return
	}

	views := make([]map[string]any, 0, len(result.Data))
	for _, u := range result.Data {
		views = append(views, userView(u))
	}
	httpx.WriteJSON(w, http.StatusOK, api.PageResponse[map[string]any]{
		Data:        views,
		Page:        result.Page,
		Size:        result.Size,
		TotalCount:  result.TotalCount,
		TotalPages:  (result.TotalCount + result.Size - 1) / result.Size,
		CurrentSize: len(views),
	})
}

// userView omits credentials and the TOTP secret from responses.
func userView(u domain.User) map[string]any {
	return map[string]any{
		"id":           u.ID,
		"username":     u.Username,
		"domain":       u.Domain,
		"first_name":   u.FirstName,
		"last_name":    u.LastName,
		"email":        u.Email,
		"source":       u.Source,
		"mfa_enabled":  u.MFAEnabledAt != nil,
		"logged_at":    u.LoggedAt,
		"logins_count": u.LoginsCount,
		"created_at":   u.CreatedAt,
		"updated_at":   u.UpdatedAt,
	}
}
