package rest

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/pennyplan/internal/common"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	oauthStateCookie = "pennyplan_oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	FrontendURL  string

	// Endpoint overrides google.Endpoint.
	Endpoint *oauth2.Endpoint
}

// Enabled reports whether the code flow has everything it needs.
func (c GoogleOAuthConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURL != ""
}

// googleOAuth runs the server side authorization code flow and hands the
// resulting ID token to the same resolution path as POST /auth/google/verify.
type googleOAuth struct {
	oauth       *oauth2.Config
	frontendURL string
}

func newGoogleOAuth(cfg GoogleOAuthConfig) *googleOAuth {
	endpoint := google.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}

	return &googleOAuth{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     endpoint,
		},
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
	}
}

func (s *HTTPServer) googleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := common.MakeRandHexString(16)
	if err != nil {
		s.logger.Error(r.Context(), "oauth state generation failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Error starting Google sign-in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, s.google.oauth.AuthCodeURL(state), http.StatusFound)
}

func (s *HTTPServer) googleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	token, err := s.completeGoogleLogin(r)
	if err != nil {
		s.logger.Warn(ctx, "google callback failed", "error", err)
		http.Redirect(w, r, s.google.frontendURL+"/login?error=auth_failed", http.StatusFound)
		return
	}

	http.Redirect(w, r, s.google.frontendURL+"/auth/callback?token="+url.QueryEscape(token), http.StatusFound)
}

func (s *HTTPServer) completeGoogleLogin(r *http.Request) (string, error) {
	ctx := r.Context()
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		return "", errors.New("provider error: " + e)
	}

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" {
		return "", errors.New("missing state cookie")
	}
	if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(q.Get("state"))) != 1 {
		return "", errors.New("state mismatch")
	}

	code := q.Get("code")
	if code == "" {
		return "", errors.New("missing code")
	}

	tok, err := s.google.oauth.Exchange(ctx, code)
	if err != nil {
		return "", err
	}

	rawIDToken, _ := tok.Extra("id_token").(string)
	if rawIDToken == "" {
		return "", errors.New("token response has no id_token")
	}

	res, err := s.users.ExternalLogin(ctx, rawIDToken)
	if err != nil {
		return "", err
	}
	return res.Token, nil
}
