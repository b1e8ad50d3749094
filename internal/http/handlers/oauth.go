package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"postpilot/internal/domain"
)

// OAuthLogin returns the Meta consent URL the client redirects the user to.
func (a *App) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	if !a.OAuth.Configured() {
		a.error(w, http.StatusServiceUnavailable, "oauth_unconfigured", "Meta app credentials are not configured")
		return
	}
	state := uuid.NewString()
	a.json(w, http.StatusOK, map[string]string{
		"auth_url": a.OAuth.AuthURL(state),
		"state":    state,
	})
}

// OAuthCallback finishes the flow: exchanges the code, upgrades to a
// long-lived token, resolves the account it belongs to, and stores it.
func (a *App) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	if !a.OAuth.Configured() {
		a.error(w, http.StatusServiceUnavailable, "oauth_unconfigured", "Meta app credentials are not configured")
		return
	}
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		a.error(w, http.StatusBadRequest, "oauth_denied", r.URL.Query().Get("error_description"))
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "code is required")
		return
	}

	short, err := a.OAuth.ExchangeCode(r.Context(), code)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	long, err := a.OAuth.LongLivedToken(r.Context(), short.AccessToken)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	info, err := a.Instagram.GetUserInfo(r.Context(), long.AccessToken)
	if err != nil {
		a.respondError(w, r, err)
		return
	}

	now := time.Now()
	token := &domain.OAuthToken{
		IGUserID:    info.ID,
		AccessToken: long.AccessToken,
		ExpiresAt:   long.ExpiresAt(now),
	}
	if err := a.Tokens.Upsert(r.Context(), token); err != nil {
		a.respondError(w, r, err)
		return
	}

	a.Logger.Info().
		Str("ig_user_id", token.IGUserID).
		Time("expires_at", token.ExpiresAt).
		Msg("handler: Instagram account connected")
	a.json(w, http.StatusOK, map[string]any{
		"ig_user_id": token.IGUserID,
		"expires_at": token.ExpiresAt,
	})
}
