// Package auth signs shoppers in with Google and issues the API session tokens.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"crown_back_end/internal/apperr"

	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/google"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// TokenValidator checks an ID token's signature, expiry and audience.
type TokenValidator func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// Identity is what the identity provider vouches for.
type Identity struct {
	SubjectID string
	Email     string
	Name      string
	AvatarURL string
}

// Verifier turns a provider token into a verified identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// GoogleVerifier accepts Google ID tokens issued to our client id and can run
// the authorization code exchange for server-side sign in.
type GoogleVerifier struct {
	clientID string
	validate TokenValidator
	provider *google.Provider
	oauth    *oauth2.Config
}

func NewGoogleVerifier(cfg GoogleConfig) *GoogleVerifier {
	scopes := []string{"openid", "email", "profile"}
	return &GoogleVerifier{
		clientID: cfg.ClientID,
		validate: idtoken.Validate,
		provider: google.New(cfg.ClientID, cfg.ClientSecret, cfg.CallbackURL, scopes...),
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes: []string{
				"openid",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: googleoauth.Endpoint,
		},
	}
}

// WithHTTPClient routes provider calls through client.
func (g *GoogleVerifier) WithHTTPClient(client *http.Client) *GoogleVerifier {
	g.provider.HTTPClient = client
	return g
}

// WithValidator replaces the ID token validator.
func (g *GoogleVerifier) WithValidator(v TokenValidator) *GoogleVerifier {
	g.validate = v
	return g
}

// Verify accepts a Google ID token only when it was issued by Google for this
// client id.
func (g *GoogleVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, fmt.Errorf("%w: empty Google token", apperr.ErrUnauthorized)
	}
	if g.clientID == "" {
		return Identity{}, fmt.Errorf("%w: Google sign in is not configured", apperr.ErrUnauthorized)
	}

	payload, err := g.validate(ctx, token, g.clientID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: invalid Google token: %v", apperr.ErrUnauthorized, err)
	}
	return identityFromPayload(payload, g.clientID)
}

// AuthURL is where the browser goes to start the code flow.
func (g *GoogleVerifier) AuthURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for tokens, verifies the ID token and
// fills missing profile fields from the userinfo endpoint.
func (g *GoogleVerifier) Exchange(ctx context.Context, code string) (Identity, error) {
	if g.provider.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, g.provider.HTTPClient)
	}
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: code exchange failed: %v", apperr.ErrUnauthorized, err)
	}
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return Identity{}, fmt.Errorf("%w: code exchange returned no ID token", apperr.ErrUnauthorized)
	}
	id, err := g.Verify(ctx, raw)
	if err != nil {
		return Identity{}, err
	}
	return g.withProfile(id, tok.AccessToken), nil
}

// withProfile completes id from userinfo. The profile is ignored unless it
// belongs to the same Google account.
func (g *GoogleVerifier) withProfile(id Identity, accessToken string) Identity {
	if id.Name != "" && id.AvatarURL != "" {
		return id
	}
	u, err := g.provider.FetchUser(&google.Session{AccessToken: accessToken})
	if err != nil || u.UserID != id.SubjectID {
		return id
	}
	return mergeProfile(id, u)
}

func mergeProfile(id Identity, u goth.User) Identity {
	if id.Name == "" {
		id.Name = u.Name
	}
	if id.AvatarURL == "" {
		id.AvatarURL = u.AvatarURL
	}
	return id
}

func identityFromPayload(p *idtoken.Payload, clientID string) (Identity, error) {
	if p == nil {
		return Identity{}, fmt.Errorf("%w: empty Google token payload", apperr.ErrUnauthorized)
	}
	if p.Audience != clientID {
		return Identity{}, fmt.Errorf("%w: Google token issued for another client", apperr.ErrUnauthorized)
	}
	if !slices.Contains(googleIssuers, p.Issuer) {
		return Identity{}, fmt.Errorf("%w: wrong issuer %q", apperr.ErrUnauthorized, p.Issuer)
	}
	email, _ := p.Claims["email"].(string)
	if p.Subject == "" || email == "" {
		return Identity{}, fmt.Errorf("%w: Google token without subject or email", apperr.ErrUnauthorized)
	}
	name, _ := p.Claims["name"].(string)
	picture, _ := p.Claims["picture"].(string)
	return Identity{
		SubjectID: p.Subject,
		Email:     email,
		Name:      name,
		AvatarURL: picture,
	}, nil
}
