package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	backoffice "github.com/brightpixel/backoffice"
	"github.com/brightpixel/backoffice/middleware"
)

// AuthHandler serves login, logout, and session endpoints.
type AuthHandler struct {
	engine *backoffice.Engine
	logger *slog.Logger
	// cookieTTL bounds the session cookie; the Redis session remains the
	// source of truth, the cookie is just the carrier.
	cookieTTL time.Duration
	secure    bool
}

// NewAuthHandler creates an [AuthHandler]. secure controls the cookie's
// Secure flag and should be true everywhere except local development.
func NewAuthHandler(engine *backoffice.Engine, logger *slog.Logger, cookieTTL time.Duration, secure bool) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		engine:    engine,
		logger:    logger,
		cookieTTL: cookieTTL,
		secure:    secure,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token        string `json:"token"`
	StaffID      string `json:"staff_id"`
	Email        string `json:"email"`
	IsSuperAdmin bool   `json:"is_super_admin"`
}

// Login handles POST /api/auth/login: credential check plus the
// super-admin gate. A valid credential for a non-admin account is denied
// with 403 and leaves no live session behind.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "email and password required")
		return
	}

	ctx := backoffice.WithClientIP(c.Request.Context(), c.ClientIP())
	token, res, err := h.engine.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.Info("login rejected", "email", req.Email, "reason", err.Error())
		respondEngineError(c, err)
		return
	}

	h.setSessionCookie(c, token, int(h.cookieTTL.Seconds()))
	respondData(c, http.StatusOK, loginResponse{
		Token:        token,
		StaffID:      res.StaffID,
		Email:        res.Email,
		IsSuperAdmin: res.IsSuperAdmin,
	})
}

// Logout handles POST /api/auth/logout. The cookie is cleared before the
// remote revoke is attempted, so the client side of the logout always
// succeeds; a revoke failure is logged and reported without undoing it.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := requestToken(c)

	h.setSessionCookie(c, "", -1)

	if !ok {
		respondData(c, http.StatusOK, gin.H{"logged_out": true})
		return
	}

	ctx := backoffice.WithClientIP(c.Request.Context(), c.ClientIP())
	if err := h.engine.SignOut(ctx, token); err != nil {
		h.logger.Warn("remote sign-out failed during logout", "error", err.Error())
		respondData(c, http.StatusOK, gin.H{"logged_out": true, "remote_revoked": false})
		return
	}

	respondData(c, http.StatusOK, gin.H{"logged_out": true, "remote_revoked": true})
}

type sessionResponse struct {
	StaffID          string `json:"staff_id"`
	Email            string `json:"email"`
	IsSuperAdmin     bool   `json:"is_super_admin"`
	CreatedAt        string `json:"created_at"`
	LastActivityAt   string `json:"last_activity_at"`
	RemainingSeconds int64  `json:"remaining_seconds"`
}

// Session handles GET /api/auth/session: a read-only view of the session
// behind the presented token. It does not renew the idle TTL.
func (h *AuthHandler) Session(c *gin.Context) {
	token, ok := requestToken(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	info, err := h.engine.SessionInfo(c.Request.Context(), token)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	respondData(c, http.StatusOK, toSessionResponse(info))
}

// Touch handles POST /api/auth/session: one activity event. The admin UI
// calls this when its inactivity watchdog observes user interaction, which
// slides the server-side idle TTL.
func (h *AuthHandler) Touch(c *gin.Context) {
	token, ok := requestToken(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx := backoffice.WithClientIP(c.Request.Context(), c.ClientIP())
	info, err := h.engine.Touch(ctx, token)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	respondData(c, http.StatusOK, toSessionResponse(info))
}

func toSessionResponse(info *backoffice.SessionInfo) sessionResponse {
	return sessionResponse{
		StaffID:          info.StaffID,
		Email:            info.Email,
		IsSuperAdmin:     info.IsSuperAdmin,
		CreatedAt:        info.CreatedAt.UTC().Format(time.RFC3339),
		LastActivityAt:   info.LastActivityAt.UTC().Format(time.RFC3339),
		RemainingSeconds: int64(info.TimeRemaining.Seconds()),
	}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, token, maxAge, "/", "", h.secure, true)
}

func requestToken(c *gin.Context) (string, bool) {
	const bearer = "Bearer "
	if auth := c.GetHeader("Authorization"); len(auth) > len(bearer) && auth[:len(bearer)] == bearer {
		return auth[len(bearer):], true
	}
	cookie, err := c.Cookie(middleware.SessionCookieName)
	if err != nil || cookie == "" {
		return "", false
	}
	return cookie, true
}
