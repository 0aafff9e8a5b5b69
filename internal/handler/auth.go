package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mealscan/mealscan-go/internal/crypto"
	"github.com/mealscan/mealscan-go/internal/model"
	"github.com/mealscan/mealscan-go/internal/service"
)

const (
	stateCookieName = "mealscan_oauth_state"
	stateCookieTTL  = 10 * time.Minute
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	service          *service.AuthService
	states           *crypto.StateSigner
	frontendRedirect string
	secureCookies    bool
}

// NewAuthHandler creates a new AuthHandler. Successful Google logins are
// redirected to frontendRedirect with the token in the query string.
func NewAuthHandler(svc *service.AuthService, states *crypto.StateSigner, frontendRedirect string, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		service:          svc,
		states:           states,
		frontendRedirect: frontendRedirect,
		secureCookies:    secureCookies,
	}
}

// HandleGoogleLogin handles GET /auth/google/login requests.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := crypto.NewState()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	target, err := h.service.GoogleLoginURL(state)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    h.states.Sign(state),
		Path:     "/auth/google",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, target, http.StatusFound)
}

// HandleGoogleCallback handles GET /auth/google/callback requests.
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(crypto.ErrInvalidState.Error()))
		return
	}
	expected, err := h.states.Verify(cookie.Value)
	if err != nil || q.Get("state") != expected {
		writeJSON(w, http.StatusBadRequest, errorResponse(crypto.ErrInvalidState.Error()))
		return
	}
	h.clearStateCookie(w)

	resp, err := h.service.LoginGoogle(r.Context(), q.Get("code"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if h.frontendRedirect == "" {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	target, err := withToken(h.frontendRedirect, resp.Token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// HandleDevLogin handles POST /auth/dev/login requests.
func (h *AuthHandler) HandleDevLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	defer r.Body.Close()

	// An empty body falls back to the default dev identity.
	var req model.DevLoginRequest
	if err := decodeOptional(r.Body, &req); err != nil {
		if isBodyTooLarge(err) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	resp, err := h.service.LoginDev(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleMe handles GET /auth/me requests.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	resp, err := h.service.GetUser(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth/google",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func withToken(redirect, token string) (string, error) {
	u, err := url.Parse(redirect)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func decodeOptional(body io.Reader, v any) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
