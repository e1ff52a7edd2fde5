package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/library-seat-api/internal/dto"
	"github.com/noah-isme/library-seat-api/internal/middleware"
	"github.com/noah-isme/library-seat-api/internal/models"
	appErrors "github.com/noah-isme/library-seat-api/pkg/errors"
	"github.com/noah-isme/library-seat-api/pkg/response"
)

type approvalService interface {
	ListBookings(ctx context.Context, filter dto.BookingListFilter) ([]models.Booking, error)
	Audits(ctx context.Context, filter models.AuditFilter) ([]models.AssignmentAudit, error)
	ApproveSingle(ctx context.Context, bookingID string, req dto.ApproveBookingRequest, actor *models.JWTClaims) (*dto.ApprovalOutcome, error)
	Reject(ctx context.Context, bookingID string, req dto.RejectBookingRequest, actor *models.JWTClaims) (*dto.ApprovalOutcome, error)
	BulkAssign(ctx context.Context, req dto.BulkAssignRequest, actor *models.JWTClaims) (*dto.BulkAssignResult, error)
}

// BookingHandler exposes the booking approval workflow.
type BookingHandler struct {
	service approvalService
}

// NewBookingHandler builds a new handler.
func NewBookingHandler(service approvalService) *BookingHandler {
	return &BookingHandler{service: service}
}

// List godoc
// @Summary List seat bookings
// @Tags Bookings
// @Produce json
// @Param status query string false "pending, approved or rejected"
// @Success 200 {object} response.Envelope
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	items, err := h.service.ListBookings(c.Request.Context(), dto.BookingListFilter{Status: c.Query("status")})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// Approve godoc
// @Summary Approve a booking into a seat
// @Description Resolves a seat from the student identifier. When the library is full the call fails with MANUAL_SEAT_REQUIRED and can be retried with seat_number.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body dto.ApproveBookingRequest false "Optional manual seat"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings/{id}/approve [post]
func (h *BookingHandler) Approve(c *gin.Context) {
	var req dto.ApproveBookingRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	outcome, err := h.service.ApproveSingle(c.Request.Context(), c.Param("id"), req, middleware.CurrentClaims(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome)
}

// Reject godoc
// @Summary Reject a booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body dto.RejectBookingRequest false "Optional reason"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id}/reject [post]
func (h *BookingHandler) Reject(c *gin.Context) {
	var req dto.RejectBookingRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	outcome, err := h.service.Reject(c.Request.Context(), c.Param("id"), req, middleware.CurrentClaims(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome)
}

// BulkAssign godoc
// @Summary Assign seats to every pending booking
// @Description Processes bookings in student identifier order. Individual failures do not stop the batch.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body dto.BulkAssignRequest false "Restrict to booking IDs"
// @Success 200 {object} response.Envelope
// @Router /bookings/bulk-assign [post]
func (h *BookingHandler) BulkAssign(c *gin.Context) {
	var req dto.BulkAssignRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	result, err := h.service.BulkAssign(c.Request.Context(), req, middleware.CurrentClaims(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Audits godoc
// @Summary Assignment audit trail
// @Tags Bookings
// @Produce json
// @Param bookingId query string false "Booking ID"
// @Param limit query int false "Max rows (default 50)"
// @Success 200 {object} response.Envelope
// @Router /bookings/audits [get]
func (h *BookingHandler) Audits(c *gin.Context) {
	filter := models.AuditFilter{BookingID: c.Query("bookingId")}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer"))
			return
		}
		filter.Limit = limit
	}
	audits, err := h.service.Audits(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, audits)
}

// bindOptionalJSON accepts an empty body as the zero payload.
func bindOptionalJSON(c *gin.Context, dest interface{}) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return false
	}
	return true
}
