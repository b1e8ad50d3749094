package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"postpilot/internal/domain"
	"postpilot/internal/infra"
	"postpilot/internal/instagram"
	"postpilot/internal/scheduler"
	"postpilot/internal/storage"
)

// App holds the handler dependencies. Handlers stay thin: decode, delegate,
// encode; domain rules live behind the repositories and the scheduler.
type App struct {
	Jobs      domain.JobRepository
	Assets    domain.AssetRepository
	Tokens    domain.TokenRepository
	Scheduler *scheduler.Scheduler
	Store     *storage.FileStore
	OAuth     *instagram.OAuth
	Instagram *instagram.Client
	Logger    *infra.Logger

	PublicBaseURL string
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, codeStr, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{"code": codeStr, "message": message},
	})
}

// respondError maps domain failures onto HTTP statuses. Unknown errors are
// logged and reported as a generic internal failure.
func (a *App) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		a.error(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		a.error(w, http.StatusTooManyRequests, "rate_limited", err.Error())
	case errors.Is(err, domain.ErrAuthExpired):
		a.error(w, http.StatusUnauthorized, "auth_expired", err.Error())
	case errors.Is(err, domain.ErrAuthRevoked):
		a.error(w, http.StatusUnauthorized, "auth_revoked", err.Error())
	case errors.Is(err, domain.ErrProviderUnavailable):
		a.error(w, http.StatusBadGateway, "provider_unavailable", err.Error())
	case errors.Is(err, domain.ErrStorageUnavailable):
		a.error(w, http.StatusServiceUnavailable, "storage_unavailable", err.Error())
	default:
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("handler: unexpected error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
