// Package handler holds the helpers shared by the per-resource HTTP
// handlers in its subpackages.
package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/vetclinic/internal/authz"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

const ContextActor = "actor"

// SetActor stores the authenticated actor on the request.
func SetActor(c *gin.Context, actor authz.Actor) {
	c.Set(ContextActor, actor)
}

// Actor returns the actor stored by the auth middleware.
func Actor(c *gin.Context) (authz.Actor, error) {
	if v, ok := c.Get(ContextActor); ok {
		if actor, ok := v.(authz.Actor); ok {
			return actor, nil
		}
	}
	return authz.Actor{}, apperrors.Unauthenticated(nil)
}

// Fail hands err to the error middleware and stops the chain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParamID parses a positive int64 path parameter.
func ParamID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.BadRequest("invalid "+name, err)
	}
	return id, nil
}

// QueryID parses an optional positive int64 query parameter; absent is 0.
func QueryID(c *gin.Context, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.BadRequest("invalid "+name, err)
	}
	return id, nil
}

// Bind decodes the JSON body into req. Binding tag failures surface as
// validator errors, malformed bodies as BadRequest.
func Bind(c *gin.Context, req interface{}) error {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs
	}
	return apperrors.BadRequest("malformed request body", err)
}
