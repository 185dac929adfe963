package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"crown_back_end/internal/apperr"
	"crown_back_end/internal/models"
	"crown_back_end/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/api/idtoken"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("s3cret", time.Hour)
	require.NoError(t, err)

	raw, err := issuer.Issue(models.User{ID: "u-1", Email: "ada@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)

	claims, err := issuer.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer, err := NewTokenIssuer("s3cret", time.Hour)
	require.NoError(t, err)
	raw, err := issuer.Issue(models.User{ID: "u-1", Role: models.RoleCustomer})
	require.NoError(t, err)

	other, err := NewTokenIssuer("different", time.Hour)
	require.NoError(t, err)
	_, err = other.Parse(raw)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = issuer.Parse(raw)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = other.Parse(unsigned)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = NewTokenIssuer("", time.Hour)
	assert.Error(t, err)
}

func TestGoogleVerifier_Verify(t *testing.T) {
	payloads := map[string]*idtoken.Payload{
		"good": {
			Issuer: "https://accounts.google.com", Audience: "our-client", Subject: "g-42",
			Claims: map[string]any{"email": "ada@example.com", "name": "Ada", "picture": "https://img/ada.png"},
		},
		"short-issuer": {
			Issuer: "accounts.google.com", Audience: "our-client", Subject: "g-43",
			Claims: map[string]any{"email": "bob@example.com"},
		},
		"other-app": {
			Issuer: "https://accounts.google.com", Audience: "someone-elses-client", Subject: "victim",
			Claims: map[string]any{"email": "victim@example.com"},
		},
		"wrong-issuer": {
			Issuer: "https://login.example.com", Audience: "our-client", Subject: "g-44",
			Claims: map[string]any{"email": "eve@example.com"},
		},
		"no-email": {Issuer: "accounts.google.com", Audience: "our-client", Subject: "g-45"},
	}
	var audiences []string
	validate := func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
		audiences = append(audiences, audience)
		p, ok := payloads[token]
		if !ok {
			return nil, errors.New("idtoken: invalid token")
		}
		return p, nil
	}
	v := NewGoogleVerifier(GoogleConfig{ClientID: "our-client", ClientSecret: "secret", CallbackURL: "http://localhost/cb"}).
		WithValidator(validate)
	ctx := context.Background()

	id, err := v.Verify(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, Identity{SubjectID: "g-42", Email: "ada@example.com", Name: "Ada", AvatarURL: "https://img/ada.png"}, id)
	assert.Equal(t, []string{"our-client"}, audiences)

	id, err = v.Verify(ctx, "short-issuer")
	require.NoError(t, err)
	assert.Equal(t, "g-43", id.SubjectID)

	for _, token := range []string{"other-app", "wrong-issuer", "no-email", "forged", " "} {
		_, err = v.Verify(ctx, token)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized, token)
	}

	unconfigured := NewGoogleVerifier(GoogleConfig{}).WithValidator(validate)
	audiences = nil
	_, err = unconfigured.Verify(ctx, "good")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Empty(t, audiences)

	authURL := v.AuthURL("state-1")
	assert.Contains(t, authURL, "state=state-1")
	assert.Contains(t, authURL, "openid")
}

// redirectTransport sends every request to the test server.
type redirectTransport struct {
	target *url.URL
}

func (rt redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func TestGoogleVerifier_WithProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != "good" && r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"g-42","email":"ada@example.com","name":"Ada","picture":"https://img/ada.png"}`)
	}))
	defer srv.Close()

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)
	v := NewGoogleVerifier(GoogleConfig{ClientID: "our-client", ClientSecret: "secret", CallbackURL: "http://localhost/cb"}).
		WithHTTPClient(&http.Client{Transport: redirectTransport{target: target}})

	bare := Identity{SubjectID: "g-42", Email: "ada@example.com"}
	assert.Equal(t, Identity{SubjectID: "g-42", Email: "ada@example.com", Name: "Ada", AvatarURL: "https://img/ada.png"},
		v.withProfile(bare, "good"))

	// a profile for another account or a failed lookup leaves the identity alone
	other := Identity{SubjectID: "g-99", Email: "bob@example.com"}
	assert.Equal(t, other, v.withProfile(other, "good"))
	assert.Equal(t, bare, v.withProfile(bare, "bad"))
}

type fakeVerifier map[string]Identity

func (f fakeVerifier) Verify(_ context.Context, token string) (Identity, error) {
	id, ok := f[token]
	if !ok {
		return Identity{}, fmt.Errorf("%w: unknown token", apperr.ErrUnauthorized)
	}
	return id, nil
}

func TestService_LoginWithGoogle(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryClient()
	issuer, err := NewTokenIssuer("s3cret", time.Hour)
	require.NoError(t, err)
	verifier := fakeVerifier{
		"t1": {SubjectID: "g-1", Email: "ada@example.com", Name: "Ada"},
		"t2": {SubjectID: "g-1", Email: "ada@example.com", Name: "Ada L.", AvatarURL: "https://img/a.png"},
	}
	svc := NewService(st, verifier, issuer, zaptest.NewLogger(t))

	first, err := svc.LoginWithGoogle(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "bearer", first.TokenType)
	assert.Equal(t, models.RoleCustomer, first.User.Role)
	claims, err := issuer.Parse(first.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, claims.Subject)

	// promote, then sign in again: role survives, profile refreshes
	_, err = st.Update(ctx, store.TableUsers, store.Where().Eq("id", first.User.ID), store.Record{"role": models.RoleAdmin})
	require.NoError(t, err)

	second, err := svc.LoginWithGoogle(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, "Ada L.", second.User.Name)
	assert.Equal(t, models.RoleAdmin, second.User.Role)

	n, err := st.Count(ctx, store.TableUsers, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	me, err := svc.Me(ctx, first.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://img/a.png", me.AvatarURL)

	_, err = svc.Me(ctx, "nobody")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.LoginWithGoogle(ctx, "forged")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = svc.LoginWithCode(ctx, "code")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
