package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"bloodcare/internal/lifecycle"
	"bloodcare/internal/model"
	"bloodcare/internal/service"
	"bloodcare/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const currentUserKey = "currentUser"

// UserFinder loads the account a token was issued for
type UserFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Authenticator validates access tokens and resolves them to the stored user.
// Role and blocked status always come from the database, never from the token.
type Authenticator struct {
	secret []byte
	users  UserFinder
	logger *zap.Logger
}

func NewAuthenticator(secret []byte, users UserFinder, logger *zap.Logger) *Authenticator {
	return &Authenticator{secret: secret, users: users, logger: logger}
}

// CookieConfig controls how auth cookies are written
type CookieConfig struct {
	// Secure switches to SameSite=None; Secure for cross-origin deployments
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func SetTokenCookies(c *gin.Context, cfg CookieConfig, accessToken, refreshToken string) {
	c.SetSameSite(sameSite(cfg))
	c.SetCookie("access_token", accessToken, int(cfg.AccessTTL.Seconds()), "/", "", cfg.Secure, true)
	c.SetCookie("refresh_token", refreshToken, int(cfg.RefreshTTL.Seconds()), "/", "", cfg.Secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func ClearTokenCookies(c *gin.Context, cfg CookieConfig) {
	c.SetSameSite(sameSite(cfg))
	c.SetCookie("access_token", "", -1, "/", "", cfg.Secure, true)
	c.SetCookie("refresh_token", "", -1, "/", "", cfg.Secure, true)
}

func sameSite(cfg CookieConfig) http.SameSite {
	if cfg.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// RequireAuth rejects requests without a valid token for an existing user
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return a.RequireRole()
}

// RequireRole authenticates the request and, when roles are given, checks the stored role against them
func (a *Authenticator) RequireRole(allowedRoles ...lifecycle.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, msg := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, msg))
			return
		}

		user, ok := a.authenticate(c, tokenString)
		if !ok {
			return
		}

		if len(allowedRoles) > 0 && !hasRole(user.Role, allowedRoles) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present and lets anonymous requests through
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, _ := bearerToken(c); tokenString != "" {
			userID, _, err := service.ParseAccessToken(a.secret, tokenString)
			if err == nil {
				if user, err := a.users.GetByID(c.Request.Context(), userID); err == nil {
					setUser(c, user)
				}
			}
		}
		c.Next()
	}
}

func (a *Authenticator) authenticate(c *gin.Context, tokenString string) (*model.User, bool) {
	userID, _, err := service.ParseAccessToken(a.secret, tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid or expired token"))
		return nil, false
	}

	user, err := a.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		a.logger.Debug("token for unknown user", zap.String("user_id", userID.String()), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User no longer exists"))
		return nil, false
	}

	setUser(c, user)
	return user, true
}

func setUser(c *gin.Context, user *model.User) {
	c.Set(currentUserKey, user)
	c.Set("userID", user.ID.String())
	c.Set("userRole", string(user.Role))
}

// CurrentUser returns the authenticated user, or nil for anonymous requests
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(currentUserKey); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}

// bearerToken tries the access_token cookie first, then the Authorization header
func bearerToken(c *gin.Context) (string, string) {
	if tokenString, err := c.Cookie("access_token"); err == nil && tokenString != "" {
		return tokenString, ""
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "Authorization is missing"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Invalid authorization format. Expected 'Bearer <token>'"
	}
	return parts[1], ""
}

func hasRole(role lifecycle.Role, allowed []lifecycle.Role) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}
