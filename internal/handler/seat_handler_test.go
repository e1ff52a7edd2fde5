package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/library-seat-api/internal/models"
	"github.com/noah-isme/library-seat-api/internal/service"
	appErrors "github.com/noah-isme/library-seat-api/pkg/errors"
)

type chartServiceMock struct {
	view         *models.SeatChartView
	err          error
	refreshed    bool
	lastStudent  string
	lastFormat   string
	exportResult *service.ExportFile
}

func (m *chartServiceMock) Chart(ctx context.Context) (*models.SeatChartView, error) {
	return m.view, m.err
}

func (m *chartServiceMock) Stats(ctx context.Context) (*models.LibraryStats, error) {
	return &models.LibraryStats{TotalSeats: 40}, m.err
}

func (m *chartServiceMock) PreferredSeat(ctx context.Context, studentID string) (*models.PreferredSeat, error) {
	m.lastStudent = studentID
	seat := 1
	return &models.PreferredSeat{StudentID: studentID, TotalSeats: 40, SeatNumber: &seat}, m.err
}

func (m *chartServiceMock) Refresh(ctx context.Context) (*models.SeatChartView, error) {
	m.refreshed = true
	return m.view, m.err
}

func (m *chartServiceMock) Export(ctx context.Context, format string) (*service.ExportFile, error) {
	m.lastFormat = format
	return m.exportResult, m.err
}

func TestSeatHandlerChart(t *testing.T) {
	mockSvc := &chartServiceMock{view: &models.SeatChartView{TotalSeats: 3, Occupied: 1, FreeSeats: []int{2, 3}}}
	handler := NewSeatHandler(mockSvc)

	c, w := newContext(http.MethodGet, "/seats/chart", "")
	handler.Chart(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, mockSvc.refreshed)
	env := decode(t, w)
	assert.Equal(t, float64(2), env.Meta["free"])

	var view models.SeatChartView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, 3, view.TotalSeats)
}

func TestSeatHandlerChartRefresh(t *testing.T) {
	mockSvc := &chartServiceMock{view: &models.SeatChartView{}}
	handler := NewSeatHandler(mockSvc)

	c, w := newContext(http.MethodGet, "/seats/chart?refresh=true", "")
	handler.Chart(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.refreshed)
}

func TestSeatHandlerChartBackendDown(t *testing.T) {
	mockSvc := &chartServiceMock{err: appErrors.Wrap(errors.New("dial tcp"), appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, "library backend unavailable")}
	handler := NewSeatHandler(mockSvc)

	c, w := newContext(http.MethodGet, "/seats/chart", "")
	handler.Chart(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "BACKEND_UNAVAILABLE", decode(t, w).Error.Code)
}

func TestSeatHandlerExport(t *testing.T) {
	mockSvc := &chartServiceMock{exportResult: &service.ExportFile{Filename: "seat-chart.csv", ContentType: "text/csv", Body: []byte("Seat\n1\n")}}
	handler := NewSeatHandler(mockSvc)

	c, w := newContext(http.MethodGet, "/seats/chart/export", "")
	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", mockSvc.lastFormat)
	assert.Equal(t, `attachment; filename="seat-chart.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Seat\n1\n", w.Body.String())
}

func TestSeatHandlerPreferredSeat(t *testing.T) {
	mockSvc := &chartServiceMock{}
	handler := NewSeatHandler(mockSvc)

	c, w := newContext(http.MethodGet, "/seats/preferred?studentId=LUCK25001", "")
	handler.PreferredSeat(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "LUCK25001", mockSvc.lastStudent)
}

func TestMetricsHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ok := ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error { return nil }}
	down := ReadinessCheck{Name: "postgres", Check: func(ctx context.Context) error { return errors.New("connection refused") }}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	NewMetricsHandler(nil, ok).Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	NewMetricsHandler(nil, ok, down).Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}
