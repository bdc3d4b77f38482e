package appointment

import (
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medibook/scheduler-api/internal/middleware"
	"github.com/medibook/scheduler-api/internal/model"
	"github.com/medibook/scheduler-api/internal/schedule"
	"github.com/medibook/scheduler-api/internal/service/appointment"
	apperrors "github.com/medibook/scheduler-api/pkg/errors"
	"github.com/medibook/scheduler-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.BookAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id/status", h.UpdateStatus)
		appointments.PUT("/:id/cancel", h.CancelAppointment)
	}
}

func (h *Handler) BookAppointment(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.AccessDenied(""))
		return
	}

	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	apt, err := h.service.Book(c.Request.Context(), actor, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, apt)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.AccessDenied(""))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid appointment ID", err))
		return
	}

	apt, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.AccessDenied(""))
		return
	}

	filters, err := filtersFromQuery(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appointments, err := h.service.List(c.Request.Context(), actor, filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func filtersFromQuery(c *gin.Context) (*model.AppointmentFilters, error) {
	filters := &model.AppointmentFilters{}

	if s := c.Query("status"); s != "" {
		status := model.AppointmentStatus(s)
		if !status.Valid() {
			return nil, apperrors.Validation("unknown status filter", nil)
		}
		filters.Status = status
	}
	if s := c.Query("clinician_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, apperrors.Validation("invalid clinician ID", err)
		}
		filters.ClinicianID = &id
	}
	if s := c.Query("from"); s != "" {
		from, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, apperrors.Validation("invalid from date", err)
		}
		from = schedule.DateOnly(from)
		filters.From = &from
	}
	if s := c.Query("to"); s != "" {
		to, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, apperrors.Validation("invalid to date", err)
		}
		to = schedule.DateOnly(to)
		filters.To = &to
	}
	return filters, nil
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.AccessDenied(""))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid appointment ID", err))
		return
	}

	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	apt, err := h.service.Transition(c.Request.Context(), actor, id, req.Status, req.Notes)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.AccessDenied(""))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid appointment ID", err))
		return
	}

	// An empty body is a cancellation without a stated reason.
	var req model.CancelAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	apt, err := h.service.Cancel(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}
