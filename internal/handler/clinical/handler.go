package clinical

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/handler"
	"github.com/jwalitptl/vetclinic/internal/model"
	clinicalService "github.com/jwalitptl/vetclinic/internal/service/clinical"
	"github.com/jwalitptl/vetclinic/pkg/httputil"
)

type Handler struct {
	service *clinicalService.Service
}

func NewHandler(service *clinicalService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	records := r.Group("/clinical-records")
	{
		records.POST("", h.OpenRecord)
		records.GET("", h.ListRecords)
		records.GET("/:id", h.GetRecord)
		records.PUT("/:id/diagnosis", h.RegisterDiagnosis)
		records.PUT("/:id/treatment", h.UpdateTreatment)
		records.POST("/:id/observations", h.AddObservation)
	}
}

type openRecordRequest struct {
	AppointmentID int64  `json:"appointment_id" binding:"required"`
	Diagnosis     string `json:"diagnosis"`
	Treatment     string `json:"treatment"`
	Observations  string `json:"observations"`
}

type textRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handler) OpenRecord(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var req openRecordRequest
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	record, err := h.service.Open(c.Request.Context(), actor, req.AppointmentID, req.Diagnosis, req.Treatment, req.Observations)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithCreated(c, record)
}

func (h *Handler) GetRecord(c *gin.Context) {
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

	record, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}

func (h *Handler) ListRecords(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var filter model.ClinicalRecordFilter
	if filter.AppointmentID, err = handler.QueryID(c, "appointment_id"); err != nil {
		handler.Fail(c, err)
		return
	}
	if filter.PetID, err = handler.QueryID(c, "pet_id"); err != nil {
		handler.Fail(c, err)
		return
	}

	records, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, records)
}

type textUpdate func(ctx context.Context, actor authz.Actor, id int64, text string) (*model.ClinicalRecord, error)

func (h *Handler) RegisterDiagnosis(c *gin.Context) {
	h.updateText(c, h.service.RegisterDiagnosis)
}

func (h *Handler) UpdateTreatment(c *gin.Context) {
	h.updateText(c, h.service.UpdateTreatment)
}

func (h *Handler) AddObservation(c *gin.Context) {
	h.updateText(c, h.service.AddObservation)
}

func (h *Handler) updateText(c *gin.Context, update textUpdate) {
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

	var req textRequest
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	record, err := update(c.Request.Context(), actor, id, req.Text)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}
