package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/spring-team-7/table-now-sub000/internal/domain"
	"github.com/spring-team-7/table-now-sub000/internal/dto"
	"github.com/spring-team-7/table-now-sub000/internal/service"
	"github.com/spring-team-7/table-now-sub000/pkg/telemetry"
)

// AdmissionHandler handles admission HTTP requests. Each join endpoint
// is bound to one admission strategy so the strategies can be load
// tested side by side against the same events.
type AdmissionHandler struct {
	strategy         service.AdmissionStrategy
	admissionService service.AdmissionService
}

// NewAdmissionHandler creates an admission handler bound to one strategy
func NewAdmissionHandler(strategy service.AdmissionStrategy, admissionService service.AdmissionService) *AdmissionHandler {
	return &AdmissionHandler{
		strategy:         strategy,
		admissionService: admissionService,
	}
}

// Join handles POST /events/:id/join
func (h *AdmissionHandler) Join(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admission.join")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.GetString("user_id")
	if userID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "unauthorized",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	eventID := c.Param("id")

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("event_id", eventID),
		attribute.String("strategy", h.strategy.Name()),
	)

	result, err := h.strategy.Join(ctx, eventID, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("admission_id", result.AdmissionID))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, result)
}

// GetAdmission handles GET /events/:id/admission
func (h *AdmissionHandler) GetAdmission(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admission.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.GetString("user_id")
	if userID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "unauthorized",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	eventID := c.Param("id")

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("event_id", eventID),
	)

	result, err := h.admissionService.GetAdmission(ctx, eventID, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}

// handleError maps domain errors to HTTP responses
func (h *AdmissionHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEventNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "EVENT_NOT_FOUND",
		})
	case errors.Is(err, domain.ErrAdmissionNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "ADMISSION_NOT_FOUND",
		})
	case errors.Is(err, domain.ErrEventNotOpened):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error:   err.Error(),
			Code:    "EVENT_NOT_OPENED",
			Message: "The event is not accepting joins yet",
		})
	case errors.Is(err, domain.ErrAlreadyJoined),
		errors.Is(err, domain.ErrAdmissionConflict):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "ALREADY_JOINED",
		})
	case errors.Is(err, domain.ErrEventFull):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error:   err.Error(),
			Code:    "EVENT_FULL",
			Message: "All seats for this event have been taken",
		})
	case errors.Is(err, domain.ErrLockNotAcquired),
		errors.Is(err, domain.ErrLockWaitTimeout):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
			Error:   err.Error(),
			Code:    "ADMISSION_BUSY",
			Message: "Too many joiners right now, please retry",
		})
	case domain.IsValidationError(err):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}
}
