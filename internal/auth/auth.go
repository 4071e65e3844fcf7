// Package auth implements Google OAuth login. The tenant is derived from
// the signed-in account's email domain, so a deployment serves many
// cleaning companies without a separate tenant registry.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/cleanbid/backend/internal/config"
	"github.com/cleanbid/backend/internal/pkg/logger"
)

const (
	stateCookie  = "oauth_state"
	stateMaxAge  = 300
	userInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
	profileScope = "https://www.googleapis.com/auth/userinfo.profile"
	emailScope   = "https://www.googleapis.com/auth/userinfo.email"
)

// googleProfile is the subset of Google's userinfo response we read.
type googleProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	HD            string `json:"hd"`
}

// AuthManager runs the OAuth flow and owns the session table.
type AuthManager struct {
	cfg    *config.AuthConfig
	oauth  *oauth2.Config
	store  *sessionStore
	client *http.Client
}

// NewAuthManager builds the manager. baseURL is the public origin used for
// the OAuth callback.
func NewAuthManager(cfg *config.AuthConfig, baseURL string) *AuthManager {
	return &AuthManager{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  baseURL + "/auth/callback",
			Scopes:       []string{emailScope, profileScope},
			Endpoint:     google.Endpoint,
		},
		store:  newSessionStore(),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// HandleLogin redirects the browser into Google's consent flow with a
// fresh anti-forgery state value.
func (am *AuthManager) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := randomToken()
	if err != nil {
		http.Error(w, "failed to generate state", http.StatusInternalServerError)
		return
	}

	setCookie(w, stateCookie, state, stateMaxAge)

	u := am.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
	if am.cfg.AllowedDomain != "" {
		// The hd hint pre-selects the workspace account in Google's picker.
		u += "&hd=" + am.cfg.AllowedDomain
	}
	http.Redirect(w, r, u, http.StatusTemporaryRedirect)
}

// HandleCallback exchanges the code, resolves the tenant from the email
// domain, and issues a session cookie.
func (am *AuthManager) HandleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || r.URL.Query().Get("state") != cookie.Value {
		logger.Warn("oauth state check failed")
		am.loginFailed(w, r, "invalid_state")
		return
	}
	setCookie(w, stateCookie, "", -1)

	if provErr := r.URL.Query().Get("error"); provErr != "" {
		logger.Warn("oauth provider error", "error", provErr)
		am.loginFailed(w, r, provErr)
		return
	}

	token, err := am.oauth.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		logger.Error("oauth code exchange failed", "error", err.Error())
		am.loginFailed(w, r, "exchange_failed")
		return
	}

	profile, err := am.fetchProfile(r.Context(), token.AccessToken)
	if err != nil {
		logger.Error("oauth profile fetch failed", "error", err.Error())
		am.loginFailed(w, r, "userinfo_failed")
		return
	}

	at := strings.LastIndexByte(profile.Email, '@')
	if at < 0 {
		am.loginFailed(w, r, "invalid_email")
		return
	}
	tenantID := profile.Email[at+1:]

	// AllowedDomain, when set, pins the deployment to a single tenant.
	if am.cfg.AllowedDomain != "" && tenantID != am.cfg.AllowedDomain {
		logger.Warn("login from disallowed domain", "email", profile.Email)
		am.loginFailed(w, r, "domain_not_allowed")
		return
	}

	sessionID, err := randomToken()
	if err != nil {
		am.loginFailed(w, r, "session_failed")
		return
	}

	now := time.Now()
	am.store.put(sessionID, &Session{
		UserID:    profile.ID,
		Email:     profile.Email,
		Name:      profile.Name,
		Picture:   profile.Picture,
		TenantID:  tenantID,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(am.cfg.CookieMaxAge) * time.Second),
	})

	logger.Info("user logged in", "email", profile.Email, "tenant_id", tenantID)

	setCookie(w, am.cfg.CookieName, sessionID, am.cfg.CookieMaxAge)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// HandleLogout drops the session and clears the cookie.
func (am *AuthManager) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(am.cfg.CookieName); err == nil {
		am.store.drop(cookie.Value)
	}
	setCookie(w, am.cfg.CookieName, "", -1)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// HandleUserInfo reports the signed-in user and tenant for the frontend.
func (am *AuthManager) HandleUserInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	s := am.GetSession(r)
	if s == nil {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"authenticated": false})
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"authenticated": true,
		"user": map[string]string{
			"id":      s.UserID,
			"email":   s.Email,
			"name":    s.Name,
			"picture": s.Picture,
		},
		"tenant": map[string]string{"id": s.TenantID},
	})
}

// GetSession returns the request's live session, or nil.
func (am *AuthManager) GetSession(r *http.Request) *Session {
	cookie, err := r.Cookie(am.cfg.CookieName)
	if err != nil {
		return nil
	}
	return am.store.get(cookie.Value)
}

// IsAuthenticated reports whether the request carries a live session.
func (am *AuthManager) IsAuthenticated(r *http.Request) bool {
	return am.GetSession(r) != nil
}

// CleanupExpiredSessions drops expired sessions. Called from server startup
// and safe to call on a timer.
func (am *AuthManager) CleanupExpiredSessions() {
	am.store.purgeExpired()
}

func (am *AuthManager) loginFailed(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, "/?error="+reason, http.StatusTemporaryRedirect)
}

func (am *AuthManager) fetchProfile(ctx context.Context, accessToken string) (*googleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := am.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, body)
	}

	var p googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return &p, nil
}

func setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
