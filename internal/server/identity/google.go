package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/dmitrijs2005/pennyplan/internal/common"
)

const (
	GoogleJWKSURL        = "https://www.googleapis.com/oauth2/v3/certs"
	DefaultVerifyTimeout = 5 * time.Second
)

// GoogleIssuers are the iss values Google puts into ID tokens.
var GoogleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

type GoogleConfig struct {
	ClientID             string
	JWKSURL              string
	Timeout              time.Duration
	RequireVerifiedEmail bool

	// Now overrides the clock used for expiry checks.
	Now func() time.Time
}

// GoogleVerifier checks Google ID tokens against Google's published keys.
type GoogleVerifier struct {
	verifier             *oidc.IDTokenVerifier
	timeout              time.Duration
	requireVerifiedEmail bool
}

// NewGoogleVerifier builds a verifier backed by a remote key set. The key
// set is fetched lazily and refreshed when an unknown kid shows up.
func NewGoogleVerifier(cfg GoogleConfig) (*GoogleVerifier, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("google client id is required")
	}
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = GoogleJWKSURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultVerifyTimeout
	}

	client := &http.Client{Timeout: cfg.Timeout}
	keySet := oidc.NewRemoteKeySet(oidc.ClientContext(context.Background(), client), cfg.JWKSURL)

	// issuer is matched against GoogleIssuers after verification since
	// Google uses two spellings
	v := oidc.NewVerifier("", keySet, &oidc.Config{
		ClientID:             cfg.ClientID,
		SupportedSigningAlgs: []string{oidc.RS256},
		SkipIssuerCheck:      true,
		Now:                  cfg.Now,
	})

	return &GoogleVerifier{
		verifier:             v,
		timeout:              cfg.Timeout,
		requireVerifiedEmail: cfg.RequireVerifiedEmail,
	}, nil
}

type googleClaims struct {
	Email         string       `json:"email"`
	EmailVerified flexibleBool `json:"email_verified"`
	Name          string       `json:"name"`
	Picture       string       `json:"picture"`
}

func (g *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, reject(errors.New("empty token"))
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	idToken, err := g.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, reject(err)
	}

	if !slices.Contains(GoogleIssuers, idToken.Issuer) {
		return nil, reject(fmt.Errorf("unexpected issuer %q", idToken.Issuer))
	}

	var gc googleClaims
	if err := idToken.Claims(&gc); err != nil {
		return nil, reject(err)
	}

	if gc.Email == "" {
		return nil, reject(errors.New("email claim missing"))
	}
	if g.requireVerifiedEmail && !bool(gc.EmailVerified) {
		return nil, reject(errors.New("email not verified"))
	}

	return &Claims{
		Subject:       idToken.Subject,
		Email:         gc.Email,
		EmailVerified: bool(gc.EmailVerified),
		Name:          gc.Name,
		Picture:       gc.Picture,
	}, nil
}

func reject(err error) error {
	return fmt.Errorf("%w: %v", common.ErrInvalidExternalToken, err)
}

// flexibleBool accepts both true and "true", Google has used both.
type flexibleBool bool

func (b *flexibleBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = flexibleBool(t)
	case string:
		*b = flexibleBool(t == "true")
	case nil:
		*b = false
	default:
		return fmt.Errorf("email_verified: unexpected type %T", v)
	}
	return nil
}

var _ Verifier = (*GoogleVerifier)(nil)
