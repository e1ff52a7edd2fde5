package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/library-seat-api/internal/backend"
	"github.com/noah-isme/library-seat-api/internal/models"
	"github.com/noah-isme/library-seat-api/internal/seating"
	appErrors "github.com/noah-isme/library-seat-api/pkg/errors"
	"github.com/noah-isme/library-seat-api/pkg/export"
)

// Backend reads depend on the caller's token, so cached copies live under the caller scope.
const (
	cacheKeyStats    = "backend:%s:stats"
	cacheKeyStudents = "backend:%s:students:%d"
	cachePatternAll  = "backend:%s:*"
)

type libraryBackend interface {
	ListStudents(ctx context.Context, limit int) ([]models.Student, error)
	Stats(ctx context.Context) (*models.LibraryStats, error)
}

type chartRenderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset) ([]byte, error)
}

// ChartConfig tunes how much of the student list is loaded.
type ChartConfig struct {
	StudentLimit int
	CacheTTL     time.Duration
}

// ExportFile is a rendered chart ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ChartSnapshot is one consistent read of students, capacity and the chart derived from them.
type ChartSnapshot struct {
	Students   []models.Student
	TotalSeats int
	Chart      models.SeatChart
}

// ChartService derives the seating chart from backend data on every call.
type ChartService struct {
	backend libraryBackend
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	cfg     ChartConfig
	csv     chartRenderer
	pdf     chartRenderer
	now     func() time.Time
}

// NewChartService constructs a ChartService.
func NewChartService(source libraryBackend, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg ChartConfig) *ChartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StudentLimit <= 0 {
		cfg.StudentLimit = 1000
	}
	return &ChartService{
		backend: source,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		now:     time.Now,
	}
}

// Stats returns the library stats, served from cache when fresh.
func (s *ChartService) Stats(ctx context.Context) (*models.LibraryStats, error) {
	key := fmt.Sprintf(cacheKeyStats, backend.ScopeKey(ctx))
	var cached models.LibraryStats
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}
	stats, err := s.backend.Stats(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, stats, s.cfg.CacheTTL)
	return stats, nil
}

// Students returns the student list, served from cache when fresh.
func (s *ChartService) Students(ctx context.Context) ([]models.Student, error) {
	key := fmt.Sprintf(cacheKeyStudents, backend.ScopeKey(ctx), s.cfg.StudentLimit)
	var cached []models.Student
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}
	students, err := s.backend.ListStudents(ctx, s.cfg.StudentLimit)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, students, s.cfg.CacheTTL)
	return students, nil
}

// Snapshot loads students and capacity and recomputes the chart from scratch.
func (s *ChartService) Snapshot(ctx context.Context) (*ChartSnapshot, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	students, err := s.Students(ctx)
	if err != nil {
		return nil, err
	}
	chart := seating.AssignAll(students, stats.TotalSeats)
	return &ChartSnapshot{Students: students, TotalSeats: stats.TotalSeats, Chart: chart}, nil
}

// Chart returns the derived chart view.
func (s *ChartService) Chart(ctx context.Context) (*models.SeatChartView, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	view := buildChartView(snap)
	s.metrics.ObserveChart(view.TotalSeats, view.Occupied, len(view.Unassigned))
	if len(view.Unassigned) > 0 && view.TotalSeats > 0 {
		s.logger.Warn("students without seat", zap.Int("count", len(view.Unassigned)), zap.Int("capacity", view.TotalSeats))
	}
	return view, nil
}

// PreferredSeat previews the seat an identifier maps to before collision resolution.
func (s *ChartService) PreferredSeat(ctx context.Context, studentID string) (*models.PreferredSeat, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	preview := &models.PreferredSeat{StudentID: studentID, TotalSeats: stats.TotalSeats}
	if seat, ok := seating.PreferredSeat(studentID, stats.TotalSeats); ok {
		preview.SeatNumber = &seat
	}
	return preview, nil
}

// Refresh drops the caller's cached backend reads and rebuilds the chart.
func (s *ChartService) Refresh(ctx context.Context) (*models.SeatChartView, error) {
	if err := s.cache.Invalidate(ctx, fmt.Sprintf(cachePatternAll, backend.ScopeKey(ctx))); err != nil {
		s.logger.Warn("refresh could not invalidate cache", zap.Error(err))
	}
	return s.Chart(ctx)
}

// Export renders the chart as csv or pdf.
func (s *ChartService) Export(ctx context.Context, format string) (*ExportFile, error) {
	var renderer chartRenderer
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "csv":
		renderer = s.csv
	case "pdf":
		renderer = s.pdf
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	body, err := renderer.Render(chartDataset(snap))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render seat chart")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("seat-chart-%s.%s", now.Format("20060102-150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func buildChartView(snap *ChartSnapshot) *models.SeatChartView {
	seats := snap.Chart.Seats()
	assignments := make([]models.SeatAssignment, 0, len(seats))
	seated := make(map[string]struct{}, len(seats))
	for _, seat := range seats {
		a := snap.Chart[seat]
		assignments = append(assignments, a)
		seated[a.Student.StudentID] = struct{}{}
	}

	unassigned := make([]models.Student, 0)
	for _, st := range snap.Students {
		if _, ok := seated[st.StudentID]; ok && st.StudentID != "" {
			continue
		}
		unassigned = append(unassigned, st)
	}
	sort.SliceStable(unassigned, func(i, j int) bool {
		return unassigned[i].StudentID < unassigned[j].StudentID
	})

	return &models.SeatChartView{
		TotalSeats:  snap.TotalSeats,
		Occupied:    len(assignments),
		Assignments: assignments,
		FreeSeats:   seating.FreeSeats(snap.Chart, snap.TotalSeats),
		Unassigned:  unassigned,
	}
}

func chartDataset(snap *ChartSnapshot) export.Dataset {
	data := export.Dataset{
		Title:   fmt.Sprintf("Seat chart (%d seats)", snap.TotalSeats),
		Headers: []string{"Seat", "Student ID", "Name", "Email", "Mobile", "Status"},
	}
	for seat := 1; seat <= snap.TotalSeats; seat++ {
		row := map[string]string{"Seat": strconv.Itoa(seat), "Status": "free"}
		if a, ok := snap.Chart[seat]; ok {
			row["Student ID"] = a.Student.StudentID
			row["Name"] = a.Student.Name
			row["Email"] = a.Student.Email
			row["Mobile"] = a.Student.MobileNo
			row["Status"] = string(a.Status)
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}
