package middlewares

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Token types carried in the "type" claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// Context keys set by Middleware.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

var ErrWrongTokenType = errors.New("wrong token type")

// Auth issues and validates HS256 tokens.
type Auth struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewAuth(secret string, accessTTL, refreshTTL time.Duration) *Auth {
	return &Auth{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (a *Auth) IssueAccess(userID uint, role string) (string, error) {
	return a.issue(userID, role, TokenAccess, a.accessTTL)
}

func (a *Auth) IssueRefresh(userID uint, role string) (string, error) {
	return a.issue(userID, role, TokenRefresh, a.refreshTTL)
}

func (a *Auth) issue(userID uint, role, tokenType string, ttl time.Duration) (string, error) {
	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"type":    tokenType,
		"jti":     uuid.NewString(),
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	})
	return token.SignedString(a.secret)
}

// Parse validates tokenString and checks it is of the wanted type.
func (a *Auth) Parse(tokenString, wantType string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if t, _ := claims["type"].(string); t != wantType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// Middleware validates the access token from the Authorization header OR
// the token query parameter (used by the websocket client).
func (a *Auth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			c.Abort()
			return
		}

		claims, err := a.Parse(tokenString, TokenAccess)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		userID, ok := ClaimUserID(claims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token payload"})
			c.Abort()
			return
		}

		role, _ := claims["role"].(string)
		c.Set(ContextUserID, userID)
		c.Set(ContextRole, role)
		c.Next()
	}
}

// RequireRole must run after Middleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		c.Abort()
	}
}

// ClaimUserID reads the numeric user_id claim.
func ClaimUserID(claims jwt.MapClaims) (uint, bool) {
	switch v := claims["user_id"].(type) {
	case float64:
		if v <= 0 {
			return 0, false
		}
		return uint(v), true
	case uint:
		return v, v > 0
	}
	return 0, false
}

// UserID returns the authenticated user's id from the gin context.
func UserID(c *gin.Context) (uint, bool) {
	raw, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case uint:
		return v, true
	case float64:
		return uint(v), true
	}
	return 0, false
}
