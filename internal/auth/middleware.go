package auth

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/launchpad/internal/apperr"
)

const sessionContextKey = "launchpad.session"

// Resolver looks up a session by bearer token.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Session, error)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Middleware rejects requests without a valid session and stores the
// session on the gin context.
func Middleware(r Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := r.Resolve(c.Request.Context(), BearerToken(c.GetHeader("Authorization")))
		if err != nil {
			kind := apperr.KindOf(err)
			body := gin.H{"error": err.Error(), "kind": kind}
			if hint := apperr.HintOf(err); hint != "" {
				body["hint"] = hint
			}
			c.AbortWithStatusJSON(apperr.HTTPStatus(kind), body)
			return
		}
		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// FromGin returns the session stored by Middleware, or nil.
func FromGin(c *gin.Context) *Session {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*Session)
	return sess
}
