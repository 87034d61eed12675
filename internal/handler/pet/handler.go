package pet

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/vetclinic/internal/handler"
	"github.com/jwalitptl/vetclinic/internal/model"
	petService "github.com/jwalitptl/vetclinic/internal/service/pet"
	"github.com/jwalitptl/vetclinic/pkg/httputil"
)

type Handler struct {
	service *petService.Service
}

func NewHandler(service *petService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	pets := r.Group("/pets")
	{
		pets.POST("", h.RegisterPet)
		pets.GET("", h.ListPets)
		pets.GET("/search", h.SearchPets)
		pets.GET("/:id", h.GetPet)
		pets.PUT("/:id/weight", h.UpdateWeight)
		pets.GET("/:id/history", h.History)
	}
}

type updateWeightRequest struct {
	Weight float64 `json:"weight"`
}

func (h *Handler) RegisterPet(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var req model.PetData
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}
	// consultations are appended by opening clinical records only
	req.Consultations = nil

	pet, err := h.service.Register(c.Request.Context(), actor, req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithCreated(c, pet)
}

func (h *Handler) GetPet(c *gin.Context) {
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

	pet, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, pet)
}

func (h *Handler) ListPets(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	ownerID, err := handler.QueryID(c, "owner_id")
	if err != nil {
		handler.Fail(c, err)
		return
	}

	pets, err := h.service.List(c.Request.Context(), actor, model.PetFilter{
		OwnerID: ownerID,
		Name:    c.Query("name"),
	})
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, pets)
}

func (h *Handler) SearchPets(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	pets, err := h.service.SearchByName(c.Request.Context(), actor, c.Query("name"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, pets)
}

func (h *Handler) UpdateWeight(c *gin.Context) {
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

	var req updateWeightRequest
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	pet, err := h.service.UpdateWeight(c.Request.Context(), actor, id, req.Weight)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, pet)
}

func (h *Handler) History(c *gin.Context) {
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

	records, err := h.service.History(c.Request.Context(), actor, id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, records)
}
