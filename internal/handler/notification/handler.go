package notification

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medibook/scheduler-api/internal/middleware"
	"github.com/medibook/scheduler-api/internal/service/notification"
	apperrors "github.com/medibook/scheduler-api/pkg/errors"
	"github.com/medibook/scheduler-api/pkg/httputil"
)

type Handler struct {
	service *notification.Service
}

func NewHandler(service *notification.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/notifications", h.ListNotifications)
}

// ListNotifications returns the authenticated actor's inbox, newest first.
func (h *Handler) ListNotifications(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.AccessDenied(""))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	notifications, err := h.service.ListForRecipient(c.Request.Context(), actor.ID, limit)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, notifications)
}
