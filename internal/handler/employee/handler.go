package employee

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/vetclinic/internal/handler"
	"github.com/jwalitptl/vetclinic/internal/model"
	employeeService "github.com/jwalitptl/vetclinic/internal/service/employee"
	"github.com/jwalitptl/vetclinic/pkg/httputil"
)

type Handler struct {
	service *employeeService.Service
}

func NewHandler(service *employeeService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	employees := r.Group("/employees")
	{
		employees.POST("", h.Hire)
		employees.GET("", h.ListEmployees)
		employees.GET("/:id", h.GetEmployee)
		employees.PUT("/:id/salary", h.UpdateSalary)
		employees.PATCH("/:id/contact", h.UpdateContact)
		employees.PUT("/:id/credentials", h.RegisterCredentials)
	}
}

type hireRequest struct {
	model.Person
	BaseSalary float64 `json:"base_salary"`
	Role       string  `json:"role" binding:"required,staff_role"`
	// Details holds the role specific fields, e.g. license_number for a
	// veterinarian or shift for a nurse.
	Details json.RawMessage `json:"details"`
}

type salaryRequest struct {
	BaseSalary float64 `json:"base_salary"`
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Secret   string `json:"secret" binding:"required"`
}

func (h *Handler) Hire(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var req hireRequest
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}
	if len(req.Details) == 0 {
		req.Details = json.RawMessage(`{}`)
	}
	details, err := model.DecodeRoleDetails(model.Role(req.Role), req.Details)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	employee, err := h.service.Hire(c.Request.Context(), actor, req.Person, req.BaseSalary, details)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithCreated(c, employee)
}

func (h *Handler) GetEmployee(c *gin.Context) {
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

	employee, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, employee)
}

func (h *Handler) ListEmployees(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	employees, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, employees)
}

func (h *Handler) UpdateSalary(c *gin.Context) {
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

	var req salaryRequest
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	employee, err := h.service.UpdateSalary(c.Request.Context(), actor, id, req.BaseSalary)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, employee)
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

	employee, err := h.service.UpdateContact(c.Request.Context(), actor, id, req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, employee)
}

func (h *Handler) RegisterCredentials(c *gin.Context) {
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

	var req credentialsRequest
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	employee, err := h.service.RegisterCredentials(c.Request.Context(), actor, id, req.Username, req.Secret)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, employee)
}
