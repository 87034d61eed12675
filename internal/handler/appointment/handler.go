package appointment

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/vetclinic/internal/handler"
	"github.com/jwalitptl/vetclinic/internal/model"
	appointmentService "github.com/jwalitptl/vetclinic/internal/service/appointment"
	"github.com/jwalitptl/vetclinic/pkg/httputil"
)

type Handler struct {
	service *appointmentService.Service
}

func NewHandler(service *appointmentService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.ScheduleAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.GET("/:id/duration", h.GetDuration)
		appointments.PUT("/:id/schedule", h.Reschedule)
		appointments.POST("/:id/cancel", h.Cancel)
		appointments.POST("/:id/complete", h.Complete)
	}
}

type scheduleRequest struct {
	Start      time.Time `json:"start" binding:"required"`
	Reason     string    `json:"reason"`
	PetID      int64     `json:"pet_id" binding:"required"`
	EmployeeID int64     `json:"employee_id" binding:"required"`
}

type rescheduleRequest struct {
	Start time.Time `json:"start" binding:"required"`
}

type completeRequest struct {
	End time.Time `json:"end" binding:"required"`
}

type durationResponse struct {
	Minutes float64 `json:"minutes"`
}

func (h *Handler) ScheduleAppointment(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var req scheduleRequest
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	appointment, err := h.service.Schedule(c.Request.Context(), actor, req.Start, req.Reason, req.PetID, req.EmployeeID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithCreated(c, appointment)
}

func (h *Handler) GetAppointment(c *gin.Context) {
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

	appointment, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var filter model.AppointmentFilter
	if filter.PetID, err = handler.QueryID(c, "pet_id"); err != nil {
		handler.Fail(c, err)
		return
	}
	if filter.EmployeeID, err = handler.QueryID(c, "employee_id"); err != nil {
		handler.Fail(c, err)
		return
	}
	filter.Status = model.AppointmentStatus(c.Query("status"))

	appointments, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) GetDuration(c *gin.Context) {
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

	d, err := h.service.Duration(c.Request.Context(), actor, id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, durationResponse{Minutes: d.Minutes()})
}

func (h *Handler) Reschedule(c *gin.Context) {
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

	var req rescheduleRequest
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	appointment, err := h.service.Reschedule(c.Request.Context(), actor, id, req.Start)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) Cancel(c *gin.Context) {
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

	appointment, err := h.service.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) Complete(c *gin.Context) {
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

	var req completeRequest
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	appointment, err := h.service.Complete(c.Request.Context(), actor, id, req.End)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointment)
}
