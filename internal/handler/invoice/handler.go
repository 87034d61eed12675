package invoice

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/vetclinic/internal/handler"
	"github.com/jwalitptl/vetclinic/internal/model"
	invoiceService "github.com/jwalitptl/vetclinic/internal/service/invoice"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
	"github.com/jwalitptl/vetclinic/pkg/httputil"
)

type Handler struct {
	service *invoiceService.Service
}

func NewHandler(service *invoiceService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	invoices := r.Group("/invoices")
	{
		invoices.POST("", h.IssueInvoice)
		invoices.GET("", h.ListInvoices)
		invoices.GET("/:id", h.GetInvoice)
		invoices.PUT("/:id/items", h.Recalculate)
		invoices.POST("/:id/payment", h.RegisterPayment)
		invoices.POST("/:id/send", h.Send)
	}
}

type itemsRequest struct {
	Items    []model.LineItem `json:"items"`
	Discount float64          `json:"discount"`
	TaxRate  float64          `json:"tax_rate"`
}

type issueRequest struct {
	ClinicalRecordID int64 `json:"clinical_record_id" binding:"required"`
	itemsRequest
}

type paymentRequest struct {
	Method string    `json:"method" binding:"required,payment_method"`
	PaidAt time.Time `json:"paid_at"`
}

func (h *Handler) IssueInvoice(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var req issueRequest
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	invoice, err := h.service.Issue(c.Request.Context(), actor, req.ClinicalRecordID, req.Items, req.Discount, req.TaxRate)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithCreated(c, invoice)
}

func (h *Handler) GetInvoice(c *gin.Context) {
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

	invoice, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, invoice)
}

func (h *Handler) ListInvoices(c *gin.Context) {
	actor, err := handler.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var filter model.InvoiceFilter
	if filter.ClinicalRecordID, err = handler.QueryID(c, "clinical_record_id"); err != nil {
		handler.Fail(c, err)
		return
	}
	if raw := c.Query("paid"); raw != "" {
		paid, err := strconv.ParseBool(raw)
		if err != nil {
			handler.Fail(c, apperrors.BadRequest("invalid paid", err))
			return
		}
		filter.Paid = &paid
	}

	invoices, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, invoices)
}

func (h *Handler) Recalculate(c *gin.Context) {
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

	var req itemsRequest
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	invoice, err := h.service.Recalculate(c.Request.Context(), actor, id, req.Items, req.Discount, req.TaxRate)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, invoice)
}

func (h *Handler) RegisterPayment(c *gin.Context) {
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

	var req paymentRequest
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	invoice, err := h.service.RegisterPayment(c.Request.Context(), actor, id, req.Method, req.PaidAt)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, invoice)
}

func (h *Handler) Send(c *gin.Context) {
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

	if err := h.service.Send(c.Request.Context(), actor, id); err != nil {
		handler.Fail(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}
