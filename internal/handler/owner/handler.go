package owner

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/vetclinic/internal/handler"
	"github.com/jwalitptl/vetclinic/internal/model"
	ownerService "github.com/jwalitptl/vetclinic/internal/service/owner"
	"github.com/jwalitptl/vetclinic/pkg/httputil"
)

type Handler struct {
	service *ownerService.Service
}

func NewHandler(service *ownerService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	owners := r.Group("/owners")
	{
		owners.POST("", h.RegisterOwner)
		owners.GET("", h.ListOwners)
		owners.GET("/:id", h.GetOwner)
		owners.PATCH("/:id/contact", h.UpdateContact)
		owners.PUT("/:id/address", h.UpdateAddress)
	}
}

type registerOwnerRequest struct {
	model.Person
	Address string `json:"address" binding:"required,notblank"`
}

type updateAddressRequest struct {
	Address string `json:"address" binding:"required"`
}

func (h *Handler) RegisterOwner(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var req registerOwnerRequest
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	owner, err := h.service.Register(c.Request.Context(), actor, req.Person, req.Address)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithCreated(c, owner)
}

func (h *Handler) GetOwner(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}

	owner, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, owner)
}

func (h *Handler) ListOwners(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	owners, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, owners)
}

func (h *Handler) UpdateContact(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var req model.ContactUpdate
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	owner, err := h.service.UpdateContact(c.Request.Context(), actor, id, req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, owner)
}

func (h *Handler) UpdateAddress(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var req updateAddressRequest
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	owner, err := h.service.UpdateAddress(c.Request.Context(), actor, id, req.Address)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, owner)
}
