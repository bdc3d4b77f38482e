package slot

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medibook/scheduler-api/internal/model"
	"github.com/medibook/scheduler-api/internal/service/availability"
	apperrors "github.com/medibook/scheduler-api/pkg/errors"
	"github.com/medibook/scheduler-api/pkg/httputil"
)

// Handler serves the public slot listing. No authentication: browsing a
// clinician's open slots is how patients decide to book.
type Handler struct {
	service *availability.Service
}

func NewHandler(service *availability.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/clinicians/:id/slots", h.ListSlots)
}

func (h *Handler) ListSlots(c *gin.Context) {
	clinicianID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid clinician ID", err))
		return
	}

	date := c.Query("date")
	if date == "" {
		httputil.RespondWithError(c, apperrors.Validation("date query parameter is required", nil))
		return
	}

	mode := model.ConsultationMode(c.DefaultQuery("consultation_type", string(model.ConsultationInPerson)))
	if !mode.Valid() {
		httputil.RespondWithError(c, apperrors.Validation("unknown consultation type", nil))
		return
	}

	listing, err := h.service.Slots(c.Request.Context(), clinicianID, date, mode)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, listing)
}
