package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/xecbot/xecbot-api/internal/middleware"
	"github.com/xecbot/xecbot-api/internal/pkg/response"
	"github.com/xecbot/xecbot-api/internal/pkg/supabase"
)

// Handler handles auth HTTP requests
type Handler struct {
	service       *Service
	siteURL       string
	oauthProvider string
	cookies       cookieJar
}

// NewHandler creates auth handler
func NewHandler(service *Service, siteURL, oauthProvider string, secureCookies bool) *Handler {
	return &Handler{
		service:       service,
		siteURL:       strings.TrimRight(siteURL, "/"),
		oauthProvider: oauthProvider,
		cookies:       cookieJar{secure: secureCookies},
	}
}

// Login handles GET /auth/login
// @Summary Start OAuth sign-in
// @Tags Auth
// @Param next query string false "Path to return to after sign-in"
// @Success 302
// @Router /auth/login [get]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	next := SafeRedirectPath(r.URL.Query().Get("next"))
	redirectTo := h.siteURL + "/auth/callback?next=" + url.QueryEscape(next)

	authorizeURL, verifier, err := h.service.StartLogin(h.oauthProvider, redirectTo)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("start login failed")
		response.InternalError(w)
		return
	}

	h.cookies.set(w, codeVerifierCookie, verifier, "/auth", codeVerifierMaxAge)
	http.Redirect(w, r, authorizeURL, http.StatusFound)
}

// Callback handles GET /auth/callback
// @Summary Complete OAuth sign-in
// @Tags Auth
// @Param code query string false "Authorization code"
// @Param next query string false "Path to return to"
// @Success 302
// @Router /auth/callback [get]
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	next := SafeRedirectPath(query.Get("next"))
	code := query.Get("code")

	if code == "" {
		http.Redirect(w, r, h.siteURL+next, http.StatusFound)
		return
	}

	var verifier string
	if c, err := r.Cookie(codeVerifierCookie); err == nil {
		verifier = c.Value
	}
	h.cookies.clear(w, codeVerifierCookie, "/auth")

	session, err := h.service.Exchange(r.Context(), code, verifier)
	if err != nil {
		reason := "callback_failed"
		var apiErr *supabase.APIError
		if errors.As(err, &apiErr) || errors.Is(err, ErrMissingVerifier) {
			reason = "session_exchange_failed"
		}
		log.Ctx(r.Context()).Error().Err(err).Str("reason", reason).Msg("auth callback failed")
		http.Redirect(w, r, h.siteURL+"/?"+url.Values{"auth_error": {reason}}.Encode(), http.StatusFound)
		return
	}

	h.cookies.setSession(w, session)
	http.Redirect(w, r, h.siteURL+next, http.StatusFound)
}

// Logout handles POST /auth/logout
// @Summary Sign out
// @Tags Auth
// @Success 204
// @Router /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.AccessToken(r)); err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("provider sign-out failed")
	}
	h.cookies.clearSession(w)
	response.NoContent(w)
}

// Refresh handles POST /auth/refresh
// @Summary Refresh the session cookies
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response{data=RefreshResponse}
// @Failure 401 {object} response.Response
// @Router /auth/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if r.Body != nil {
		if err := json.NewDecoder(io.LimitReader(r.Body, 8<<10)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			response.BadRequest(w, "Invalid JSON body")
			return
		}
	}
	if req.RefreshToken == "" {
		if c, err := r.Cookie(refreshTokenCookie); err == nil {
			req.RefreshToken = c.Value
		}
	}

	session, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if IsInvalidSession(err) {
			h.cookies.clearSession(w)
			response.Unauthorized(w, "Session expired, sign in again")
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Msg("session refresh failed")
		response.ServiceUnavailable(w, "AUTH_UNAVAILABLE", "Authentication service unavailable")
		return
	}

	h.cookies.setSession(w, session)
	response.OK(w, RefreshResponse{UserID: session.User.ID, ExpiresAt: session.ExpiresAt})
}

// Session handles GET /api/session
// @Summary Report whether the caller is signed in
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response{data=SessionResponse}
// @Router /api/session [get]
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	token := middleware.AccessToken(r)
	if token == "" {
		response.OK(w, SessionResponse{})
		return
	}
	userID, err := h.service.ResolveSession(r.Context(), token)
	if err != nil {
		response.OK(w, SessionResponse{})
		return
	}
	response.OK(w, SessionResponse{Authenticated: true, UserID: userID})
}

// SafeRedirectPath keeps only same-site absolute paths.
func SafeRedirectPath(path string) string {
	if path == "" || !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || strings.HasPrefix(path, "/\\") {
		return "/"
	}
	return path
}
