package audit

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/vetclinic/internal/handler"
	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/service/audit"
	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
	"github.com/jwalitptl/vetclinic/pkg/httputil"
)

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes mounts the audit trail; guard restricts who may read it.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, guard ...gin.HandlerFunc) {
	audit := r.Group("/audit", guard...)
	{
		audit.GET("/logs", h.ListLogs)
	}
}

func (h *Handler) ListLogs(c *gin.Context) {
	filter := model.AuditLogFilter{
		ActorRole:  model.Role(c.Query("actor_role")),
		EntityType: c.Query("entity_type"),
		Outcome:    c.Query("outcome"),
	}

	var err error
	if filter.ActorID, err = handler.QueryID(c, "actor_id"); err != nil {
		handler.Fail(c, err)
		return
	}
	if raw := c.Query("since"); raw != "" {
		if filter.Since, err = time.Parse(time.RFC3339, raw); err != nil {
			handler.Fail(c, apperrors.BadRequest("invalid since, want RFC3339", err))
			return
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if filter.Limit, err = strconv.Atoi(raw); err != nil || filter.Limit < 0 {
			handler.Fail(c, apperrors.BadRequest("invalid limit", err))
			return
		}
	}

	logs, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, logs)
}
