package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/library-seat-api/internal/models"
	"github.com/noah-isme/library-seat-api/internal/service"
	"github.com/noah-isme/library-seat-api/pkg/response"
)

type chartService interface {
	Chart(ctx context.Context) (*models.SeatChartView, error)
	Stats(ctx context.Context) (*models.LibraryStats, error)
	PreferredSeat(ctx context.Context, studentID string) (*models.PreferredSeat, error)
	Refresh(ctx context.Context) (*models.SeatChartView, error)
	Export(ctx context.Context, format string) (*service.ExportFile, error)
}

// SeatHandler serves the derived seating chart.
type SeatHandler struct {
	service chartService
}

// NewSeatHandler builds a new handler.
func NewSeatHandler(service chartService) *SeatHandler {
	return &SeatHandler{service: service}
}

// Chart godoc
// @Summary Derived seating chart
// @Description Recomputed from the current student list and library capacity on every call.
// @Tags Seats
// @Produce json
// @Param refresh query bool false "Drop cached backend reads first"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /seats/chart [get]
func (h *SeatHandler) Chart(c *gin.Context) {
	var (
		view *models.SeatChartView
		err  error
	)
	if c.Query("refresh") == "true" {
		view, err = h.service.Refresh(c.Request.Context())
	} else {
		view, err = h.service.Chart(c.Request.Context())
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, map[string]interface{}{
		"free":       len(view.FreeSeats),
		"unassigned": len(view.Unassigned),
	})
}

// Export godoc
// @Summary Export the seating chart
// @Tags Seats
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Router /seats/chart/export [get]
func (h *SeatHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// PreferredSeat godoc
// @Summary Preview the preferred seat for a student identifier
// @Tags Seats
// @Produce json
// @Param studentId query string true "Student identifier"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /seats/preferred [get]
func (h *SeatHandler) PreferredSeat(c *gin.Context) {
	preview, err := h.service.PreferredSeat(c.Request.Context(), c.Query("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview)
}

// Stats godoc
// @Summary Library stats
// @Tags Seats
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats [get]
func (h *SeatHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}
