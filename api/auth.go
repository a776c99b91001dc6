package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
)

// Auth carries the two secrets the API's two auth layers check against:
// a JWT signing key for the Authorization bearer token every /api/v1
// route requires, and a TOTP shared secret the destructive /admin
// routes additionally require a fresh 6-digit code for. Neither library
// appears anywhere in the retrieved example pack; both are used here
// against their own documented APIs rather than an in-pack usage
// pattern (see DESIGN.md).
type Auth struct {
	JWTSecret     []byte
	TOTPSecret    string // base32, as issued by totp.Generate
	OperatorToken string // pre-shared credential /auth/login exchanges for a session
	SessionTTL    time.Duration
}

type sessionClaims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

const sessionUserKey = "tradeforge_user"

// issueSession signs a session token for subject, valid for a.SessionTTL
// (defaulting to one hour).
func (a Auth) issueSession(subject string) (string, error) {
	ttl := a.SessionTTL
	if ttl == 0 {
		ttl = time.Hour
	}
	now := time.Now()
	claims := sessionClaims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(a.JWTSecret)
}

func (a Auth) verifySession(raw string) (string, error) {
	claims := &sessionClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return a.JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return "", err
	}
	if !tok.Valid {
		return "", jwt.ErrTokenSignatureInvalid
	}
	return claims.Subject, nil
}

func (a Auth) verifyTOTP(code string) bool {
	return totp.Validate(code, a.TOTPSecret)
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimPrefix(h, prefix)
}

// requireSession is the gin middleware every /api/v1 route runs behind:
// a valid, unexpired JWT bearer token, mirroring api/tactics.go's
// implicit user_id-bearing middleware.
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		sub, err := s.auth.verifySession(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}
		c.Set(sessionUserKey, sub)
		c.Next()
	}
}

// requireTOTP step-up-authenticates destructive /admin routes with an
// additional X-TOTP-Code header, on top of requireSession.
func (s *Server) requireTOTP() gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.GetHeader("X-TOTP-Code")
		if code == "" || !s.auth.verifyTOTP(code) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing or invalid totp code"})
			return
		}
		c.Next()
	}
}

// loginRequest is the only credential the demo login endpoint checks:
// a pre-shared operator token, since spec.md names no user directory
// to authenticate against. Real deployments front this with whatever
// identity provider issues the operator token.
type loginRequest struct {
	OperatorToken string `json:"operatorToken"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.OperatorToken == "" || req.OperatorToken != s.auth.OperatorToken {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid operator token"})
		return
	}
	tok, err := s.auth.issueSession("operator")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tok})
}
