package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/vetclinic/internal/handler"
	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/service/auth"
	"github.com/jwalitptl/vetclinic/pkg/httputil"
)

type Handler struct {
	svc *auth.Service
}

func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the unauthenticated endpoints.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/auth/login", h.Login)
}

// RegisterProtectedRoutes mounts the endpoints that need an actor.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.GET("/me", h.Me)
		auth.POST("/owner-tokens", h.IssueOwnerToken)
	}
}

type ownerTokenRequest struct {
	OwnerID int64 `json:"owner_id" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	token, err := h.svc.Login(c.Request.Context(), req.Username, req.Secret)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, token)
}

func (h *Handler) Me(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"role": actor.Role, "subject_id": actor.ID})
}

func (h *Handler) IssueOwnerToken(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var req ownerTokenRequest
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	token, err := h.svc.IssueOwnerToken(c.Request.Context(), actor, req.OwnerID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithCreated(c, token)
}
