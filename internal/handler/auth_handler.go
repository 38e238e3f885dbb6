package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/service/auth"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/errors"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/logger"
)

const (
	oauthStateCookie = "nxtgen_oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

// AuthHandler handles authentication related requests
type AuthHandler struct {
	google      *auth.GoogleSignIn
	frontendURL string
	secure      bool
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler. With a frontend URL the
// Google callback redirects there instead of answering with JSON.
func NewAuthHandler(google *auth.GoogleSignIn, frontendURL string, secureCookies bool, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		google:      google,
		frontendURL: frontendURL,
		secure:      secureCookies,
		logger:      log.Named("auth_handler"),
	}
}

// Me handles GET /api/v1/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	h.logger.Debug("Profile requested", zap.String("user_id", user.ID))
	respondJSON(w, http.StatusOK, map[string]interface{}{"user": user}, h.logger)
}

// GoogleLogin handles GET /api/v1/auth/google/login
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.google.Enabled() {
		respondError(w, r, errors.NewNotFoundError("Google sign-in is not enabled"), h.logger)
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/v1/auth/google",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback handles GET /api/v1/auth/google/callback
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if !h.google.Enabled() {
		respondError(w, r, errors.NewNotFoundError("Google sign-in is not enabled"), h.logger)
		return
	}

	q := r.URL.Query()
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != q.Get("state") {
		h.logger.Warn("Google callback with mismatched state")
		respondError(w, r, errors.NewAuthenticationError("Invalid sign-in state"), h.logger)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/api/v1/auth/google", MaxAge: -1})

	if reason := q.Get("error"); reason != "" {
		respondError(w, r, errors.NewAuthenticationError("Google sign-in was cancelled: "+reason), h.logger)
		return
	}

	user, token, err := h.google.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	if h.frontendURL != "" {
		target, err := url.Parse(h.frontendURL)
		if err != nil {
			respondError(w, r, errors.NewInternalError("Invalid frontend URL", err), h.logger)
			return
		}
		// The fragment keeps the token out of server logs and Referer headers
		target.Fragment = url.Values{"token": {token}}.Encode()
		http.Redirect(w, r, target.String(), http.StatusTemporaryRedirect)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"user":       user,
		"expires_in": int(auth.SessionTTL.Seconds()),
	}, h.logger)
}
