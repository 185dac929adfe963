package handlers

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"crown_back_end/internal/apperr"
	"crown_back_end/internal/auth"
	"crown_back_end/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	oauthSessionName = "crown_oauth"
	oauthStateKey    = "state"
	oauthStateTTL    = 10 * time.Minute
)

// AuthURLer starts the browser-based code flow.
type AuthURLer interface {
	AuthURL(state string) string
}

type AuthHandler struct {
	auth   *auth.Service
	urls   AuthURLer
	states sessions.Store
	logger *zap.Logger
}

// NewAuthHandler takes an optional AuthURLer; without one the code flow routes
// answer 404. states keeps the OAuth state between the two legs of the flow.
func NewAuthHandler(svc *auth.Service, urls AuthURLer, states sessions.Store, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: svc, urls: urls, states: states, logger: logger}
}

// NewOAuthStateStore signs the short-lived state cookie with secret.
func NewOAuthStateStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/api/auth/google",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

type googleLogin struct {
	Token string `json:"token" binding:"required"`
}

// GoogleLogin exchanges a Google token obtained by the storefront for a session.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req googleLogin
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	session, err := h.auth.LoginWithGoogle(c.Request.Context(), req.Token)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *AuthHandler) GoogleURL(c *gin.Context) {
	if h.urls == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google sign in is not configured"})
		return
	}
	state := uuid.NewString()
	// Get hands back a fresh session when the old cookie no longer decodes.
	sess, _ := h.states.Get(c.Request, oauthSessionName)
	sess.Values[oauthStateKey] = state
	if err := sess.Save(c.Request, c.Writer); err != nil {
		respondError(c, h.logger, apperr.Dependency("save oauth state", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": h.urls.AuthURL(state), "state": state})
}

func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.urls == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Google sign in is not configured"})
		return
	}
	if err := h.consumeState(c); err != nil {
		respondError(c, h.logger, err)
		return
	}
	code := c.Query("code")
	if code == "" {
		respondError(c, h.logger, apperr.Validation("missing authorization code"))
		return
	}
	session, err := h.auth.LoginWithCode(c.Request.Context(), code)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// consumeState checks the callback's state against the one issued to this
// browser and drops it so it cannot be replayed.
func (h *AuthHandler) consumeState(c *gin.Context) error {
	sess, err := h.states.Get(c.Request, oauthSessionName)
	if err != nil {
		return fmt.Errorf("%w: sign in session expired, start again", apperr.ErrUnauthorized)
	}
	want, _ := sess.Values[oauthStateKey].(string)
	got := c.Query("state")

	delete(sess.Values, oauthStateKey)
	sess.Options.MaxAge = -1
	if err := sess.Save(c.Request, c.Writer); err != nil {
		h.logger.Warn("⚠️ could not clear oauth state", zap.Error(err))
	}

	if want == "" || got == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		return fmt.Errorf("%w: OAuth state mismatch", apperr.ErrUnauthorized)
	}
	return nil
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.auth.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Verify(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"valid":   true,
		"user_id": middleware.UserID(c),
		"email":   c.GetString(middleware.KeyEmail),
		"role":    c.GetString(middleware.KeyRole),
	})
}

// Logout is stateless: the client drops its token.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}
