package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/danglnh07/concord/db"
	"github.com/danglnh07/concord/service/security"
	"github.com/gin-gonic/gin"
)

const (
	claimsKey = "claims-key"
)

// bearerToken extracts the token from the Authorization header, or the
// access_token query parameter for transports that cannot set headers
// (EventSource, websocket from browsers).
func bearerToken(ctx *gin.Context) string {
	token := strings.TrimSpace(strings.TrimPrefix(ctx.Request.Header.Get("Authorization"), "Bearer"))
	if token == "" {
		token = ctx.Query("access_token")
	}
	return token
}

// verify checks the token and its version against the account record.
func (server *Server) verify(token string) (*security.CustomClaims, error) {
	claims, err := server.jwtService.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != security.AccessToken {
		return nil, fmt.Errorf("this token type is not suitable for this endpoint")
	}

	// Check if the token version matches the database
	account, err := server.store.GetAccount(claims.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid token: ID not exists")
	}
	if claims.Version != int(account.TokenVersion) {
		return nil, fmt.Errorf("invalid token: token version not match")
	}

	return claims, nil
}

// Authenticate is the strict middleware used by mutations: a missing or
// invalid session aborts the request.
func (server *Server) Authenticate() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{"Not authenticated"})
			return
		}

		claims, err := server.verify(token)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{"Invalid token: " + err.Error()})
			return
		}

		ctx.Set(claimsKey, claims)
		ctx.Next()
	}
}

// Identify is the lenient middleware used by queries: if there is no valid
// session the request continues without an identity, and handlers answer
// with an empty result instead of an error. UI polling a query must never
// crash on logout.
func (server *Server) Identify() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token != "" {
			if claims, err := server.verify(token); err == nil {
				ctx.Set(claimsKey, claims)
			}
		}
		ctx.Next()
	}
}

// RequireAdmin gates the moderation surface. Fail-closed: anything but an
// authenticated admin role gets a 403.
func (server *Server) RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims := server.identity(ctx)
		if claims == nil || claims.Role != db.Admin {
			ctx.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{"Not authorized"})
			return
		}
		ctx.Next()
	}
}

// identity returns the claims set by Authenticate/Identify, or nil when the
// request carries no valid session.
func (server *Server) identity(ctx *gin.Context) *security.CustomClaims {
	value, ok := ctx.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, ok := value.(*security.CustomClaims)
	if !ok {
		return nil
	}
	return claims
}

func (server *Server) CORSMiddlware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Writer.Header().Set("Access-Control-Allow-Origin", fmt.Sprintf("http://%s", server.config.BaseURL))
		ctx.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		ctx.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Access-Control-Allow-Headers, Authorization, X-Requested-With")
		ctx.Next()
	}
}

// Rate limiting middleware, keyed by client IP.
func (server *Server) RateLimitingMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !server.limiter.Allow(ctx.ClientIP()) {
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{"Too many request at a time"})
			return
		}

		ctx.Next()
	}
}
