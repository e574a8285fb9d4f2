package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	backoffice "github.com/brightpixel/backoffice"
)

// SessionCookieName is the cookie the admin UI stores the access token in.
// The Authorization header takes precedence when both are present.
const SessionCookieName = "bo_session"

// LoginPath is where denied browser navigations are redirected.
const LoginPath = "/auth/login"

const authResultKey = "backoffice.auth"

// AuthResultFromContext returns the validated [backoffice.AuthResult]
// injected by [AdminGuard], or false when the request never passed the gate.
func AuthResultFromContext(c *gin.Context) (*backoffice.AuthResult, bool) {
	value, ok := c.Get(authResultKey)
	if !ok {
		return nil, false
	}
	res, ok := value.(*backoffice.AuthResult)
	return res, ok
}

// AdminGuard returns gin middleware enforcing the admin gate: a valid access
// token, a live session behind it, and the super-admin flag. Requests that
// accept HTML are redirected to the login page carrying the original path in
// redirectedFrom; everything else gets a 401 JSON envelope.
func AdminGuard(engine *backoffice.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if engine == nil {
			reject(c)
			return
		}

		token, ok := requestToken(c)
		if !ok {
			reject(c)
			return
		}

		res, err := engine.Validate(c.Request.Context(), token)
		if err != nil {
			reject(c)
			return
		}

		if !res.IsSuperAdmin {
			reject(c)
			return
		}

		c.Set(authResultKey, res)
		c.Next()
	}
}

func requestToken(c *gin.Context) (string, bool) {
	if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
		return token, true
	}

	cookie, err := c.Cookie(SessionCookieName)
	if err != nil || cookie == "" {
		return "", false
	}
	return cookie, true
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func reject(c *gin.Context) {
	if acceptsHTML(c) {
		target := LoginPath + "?redirectedFrom=" + url.QueryEscape(c.Request.URL.Path)
		c.Redirect(http.StatusFound, target)
		c.Abort()
		return
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": "unauthorized",
	})
}

func acceptsHTML(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "text/html")
}
