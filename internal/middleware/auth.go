package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/handler"
	"github.com/jwalitptl/vetclinic/internal/model"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

// Authenticator resolves a bearer token to the actor it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (authz.Actor, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Authenticate verifies the bearer token and stores the actor on the request.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			handler.Fail(c, apperrors.Unauthenticated(errors.New("missing authorization header")))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			handler.Fail(c, apperrors.Unauthenticated(errors.New("invalid authorization format")))
			return
		}

		actor, err := m.auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			handler.Fail(c, err)
			return
		}

		handler.SetActor(c, actor)
		c.Next()
	}
}

// RequireRole rejects actors whose role is not listed. It guards surfaces
// that sit outside the authorization engine's resource kinds.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := handler.Actor(c)
		if err != nil {
			handler.Fail(c, err)
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		handler.Fail(c, apperrors.Unauthorized("role "+string(actor.Role)+" may not access this resource"))
	}
}
