package availability

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medibook/scheduler-api/internal/middleware"
	"github.com/medibook/scheduler-api/internal/model"
	"github.com/medibook/scheduler-api/internal/service/availability"
	apperrors "github.com/medibook/scheduler-api/pkg/errors"
	"github.com/medibook/scheduler-api/pkg/httputil"
)

type Handler struct {
	service *availability.Service
}

func NewHandler(service *availability.Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes exposes read-only schedule information.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	clinicians := r.Group("/clinicians/:id")
	{
		clinicians.GET("/availability", h.ListWindows)
		clinicians.GET("/holidays", h.ListHolidays)
		clinicians.GET("/consultation-types", h.ListConsultationTypes)
	}
}

// RegisterRoutes exposes the schedule mutations, which require an actor.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	clinicians := r.Group("/clinicians/:id")
	{
		clinicians.PUT("/availability", h.ReplaceWindows)
		clinicians.POST("/holidays", h.AddHoliday)
		clinicians.DELETE("/holidays/:holidayID", h.DeleteHoliday)
		clinicians.PUT("/consultation-types", h.UpsertConsultationType)
	}
}

func clinicianIDParam(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.Validation("invalid clinician ID", err)
	}
	return id, nil
}

func (h *Handler) ListWindows(c *gin.Context) {
	clinicianID, err := clinicianIDParam(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	windows, err := h.service.ListWindows(c.Request.Context(), clinicianID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, windows)
}

func (h *Handler) ReplaceWindows(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.AccessDenied(""))
		return
	}
	clinicianID, err := clinicianIDParam(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateWindowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	windows, err := h.service.ReplaceWindows(c.Request.Context(), actor, clinicianID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, windows)
}

func (h *Handler) ListHolidays(c *gin.Context) {
	clinicianID, err := clinicianIDParam(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	holidays, err := h.service.ListHolidays(c.Request.Context(), clinicianID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, holidays)
}

func (h *Handler) AddHoliday(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.AccessDenied(""))
		return
	}
	clinicianID, err := clinicianIDParam(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.HolidayInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	holiday, err := h.service.AddHoliday(c.Request.Context(), actor, clinicianID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, holiday)
}

func (h *Handler) DeleteHoliday(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.AccessDenied(""))
		return
	}
	clinicianID, err := clinicianIDParam(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	holidayID, err := uuid.Parse(c.Param("holidayID"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid holiday ID", err))
		return
	}

	if err := h.service.DeleteHoliday(c.Request.Context(), actor, clinicianID, holidayID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": holidayID})
}

func (h *Handler) ListConsultationTypes(c *gin.Context) {
	clinicianID, err := clinicianIDParam(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	types, err := h.service.ListConsultationTypes(c.Request.Context(), clinicianID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, types)
}

func (h *Handler) UpsertConsultationType(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.AccessDenied(""))
		return
	}
	clinicianID, err := clinicianIDParam(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.ConsultationTypeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	ct, err := h.service.UpsertConsultationType(c.Request.Context(), actor, clinicianID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, ct)
}
