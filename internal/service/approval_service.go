package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/library-seat-api/internal/backend"
	"github.com/noah-isme/library-seat-api/internal/dto"
	"github.com/noah-isme/library-seat-api/internal/models"
	"github.com/noah-isme/library-seat-api/internal/seating"
	appErrors "github.com/noah-isme/library-seat-api/pkg/errors"
	"github.com/noah-isme/library-seat-api/pkg/middleware/requestid"
)

type bookingBackend interface {
	ListBookings(ctx context.Context) ([]models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	UpdateBooking(ctx context.Context, id string, update models.BookingUpdate) error
}

type chartSource interface {
	Snapshot(ctx context.Context) (*ChartSnapshot, error)
	Refresh(ctx context.Context) (*models.SeatChartView, error)
}

// SeatLocker guards a seat while a decision is written to the backend. Seats of
// different scopes are independent.
type SeatLocker interface {
	Acquire(ctx context.Context, scope string, seat int, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, scope string, seat int, owner string) error
}

// AuditStore persists the assignment audit trail.
type AuditStore interface {
	Create(ctx context.Context, audit *models.AssignmentAudit) error
	List(ctx context.Context, filter models.AuditFilter) ([]models.AssignmentAudit, error)
}

// SeatEventSink receives seat.assigned events.
type SeatEventSink interface {
	SeatAssigned(ctx context.Context, event models.SeatAssignedEvent)
}

// ApprovalConfig tunes the approval workflow.
type ApprovalConfig struct {
	LockTTL time.Duration
}

// ApprovalService runs booking approval, rejection and bulk seat assignment.
type ApprovalService struct {
	bookings  bookingBackend
	chart     chartSource
	locks     SeatLocker
	audits    AuditStore
	events    SeatEventSink
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ApprovalConfig
}

// NewApprovalService constructs the workflow. locks, audits and events are optional.
func NewApprovalService(bookings bookingBackend, chart chartSource, locks SeatLocker, audits AuditStore, events SeatEventSink, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ApprovalConfig) *ApprovalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	return &ApprovalService{
		bookings:  bookings,
		chart:     chart,
		locks:     locks,
		audits:    audits,
		events:    events,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// ListBookings returns backend bookings, optionally filtered by status.
func (s *ApprovalService) ListBookings(ctx context.Context, filter dto.BookingListFilter) ([]models.Booking, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking filter")
	}
	bookings, err := s.bookings.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	if filter.Status == "" {
		return bookings, nil
	}
	filtered := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if string(b.Status) == filter.Status {
			filtered = append(filtered, b)
		}
	}
	return filtered, nil
}

// Audits lists the caller's assignment audit trail.
func (s *ApprovalService) Audits(ctx context.Context, filter models.AuditFilter) ([]models.AssignmentAudit, error) {
	if s.audits == nil {
		return []models.AssignmentAudit{}, nil
	}
	filter.Scope = backend.ScopeFromContext(ctx)
	audits, err := s.audits.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignment audits")
	}
	return audits, nil
}

// ApproveSingle approves one booking into a seat resolved against the current chart.
// When the library is full the operator must supply req.SeatNumber.
func (s *ApprovalService) ApproveSingle(ctx context.Context, bookingID string, req dto.ApproveBookingRequest, actor *models.JWTClaims) (*dto.ApprovalOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval payload")
	}

	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrBookingClosed, "booking has been rejected")
	}
	if !booking.NeedsSeat() && req.SeatNumber == nil {
		return nil, appErrors.Clone(appErrors.ErrBookingClosed, "booking is already approved with a seat")
	}

	snap, err := s.chart.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap.TotalSeats <= 0 {
		return nil, appErrors.ErrCapacityUnset
	}
	all, err := s.bookings.ListBookings(ctx)
	if err != nil {
		return nil, err
	}

	self := map[models.BookingID]struct{}{booking.ID: {}}
	owner := uuid.NewString()
	var seat int
	manual := req.SeatNumber != nil
	if manual {
		// The derived chart is advisory; an operator override only conflicts with committed seats.
		seat = *req.SeatNumber
		if seat > snap.TotalSeats {
			return nil, appErrors.Clone(appErrors.ErrSeatOutOfRange, fmt.Sprintf("seat %d is outside 1..%d", seat, snap.TotalSeats))
		}
		committed := seating.NewOccupancy()
		addCommitted(committed, all, snap.TotalSeats, self)
		if committed.Has(seat) || !s.lock(ctx, seat, owner) {
			return nil, appErrors.Clone(appErrors.ErrSeatTaken, fmt.Sprintf("seat %d is already taken", seat))
		}
	} else {
		taken := seating.FromChart(snap.Chart, map[string]struct{}{booking.StudentID: {}})
		addCommitted(taken, all, snap.TotalSeats, self)
		var ok bool
		seat, ok = s.claim(ctx, booking.StudentID, snap.TotalSeats, taken, owner)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrManualSeatRequired, "no free seat left; supply seat_number to assign manually")
		}
	}

	update := models.BookingUpdate{Status: models.BookingStatusApproved, SeatNumber: &seat}
	if err := s.persist(ctx, booking, update, models.AuditActionApprove, actor, nil); err != nil {
		s.unlock(ctx, seat, owner)
		return nil, err
	}
	s.publish(ctx, booking, seat, models.AuditActionApprove, actor)
	s.refresh(ctx)

	return &dto.ApprovalOutcome{
		BookingID:  string(booking.ID),
		StudentID:  booking.StudentID,
		Status:     models.BookingStatusApproved,
		SeatNumber: &seat,
		Manual:     manual,
	}, nil
}

// Reject marks a booking rejected without a seat.
func (s *ApprovalService) Reject(ctx context.Context, bookingID string, req dto.RejectBookingRequest, actor *models.JWTClaims) (*dto.ApprovalOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rejection payload")
	}
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrBookingClosed, "booking is already rejected")
	}

	var note *string
	if req.Reason != "" {
		note = &req.Reason
	}
	update := models.BookingUpdate{Status: models.BookingStatusRejected}
	if err := s.persist(ctx, booking, update, models.AuditActionReject, actor, note); err != nil {
		return nil, err
	}
	s.refresh(ctx)

	return &dto.ApprovalOutcome{
		BookingID: string(booking.ID),
		StudentID: booking.StudentID,
		Status:    models.BookingStatusRejected,
	}, nil
}

// BulkAssign approves every eligible booking in student identifier order. A failed
// backend call releases the seat for later bookings in the batch and the run continues.
func (s *ApprovalService) BulkAssign(ctx context.Context, req dto.BulkAssignRequest, actor *models.JWTClaims) (*dto.BulkAssignResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk assignment payload")
	}
	start := time.Now()
	defer func() { s.metrics.ObserveBulkBatch(time.Since(start)) }()

	all, err := s.bookings.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := s.chart.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap.TotalSeats <= 0 {
		return nil, appErrors.ErrCapacityUnset
	}

	result := &dto.BulkAssignResult{Items: make([]dto.BulkItemResult, 0)}
	batch := selectBatch(all, req.BookingIDs, result)

	inBatch := make(map[string]struct{}, len(batch))
	batchIDs := make(map[models.BookingID]struct{}, len(batch))
	for _, b := range batch {
		inBatch[b.StudentID] = struct{}{}
		batchIDs[b.ID] = struct{}{}
	}
	taken := seating.FromChart(snap.Chart, inBatch)
	addCommitted(taken, all, snap.TotalSeats, batchIDs)

	sort.SliceStable(batch, func(i, j int) bool {
		if batch[i].StudentID == batch[j].StudentID {
			return batch[i].ID < batch[j].ID
		}
		return batch[i].StudentID < batch[j].StudentID
	})

	owner := uuid.NewString()
	for i := range batch {
		booking := batch[i]
		item := dto.BulkItemResult{BookingID: string(booking.ID), StudentID: booking.StudentID}

		if err := ctx.Err(); err != nil {
			item.Result = dto.BulkItemFailed
			item.Error = err.Error()
			result.Add(item)
			continue
		}

		seat, ok := s.claim(ctx, booking.StudentID, snap.TotalSeats, taken, owner)
		if !ok {
			item.Result = dto.BulkItemUnassigned
			item.Error = appErrors.ErrManualSeatRequired.Message
			result.Add(item)
			continue
		}
		taken.Take(seat)

		update := models.BookingUpdate{Status: models.BookingStatusApproved, SeatNumber: &seat}
		if err := s.persist(ctx, &booking, update, models.AuditActionBulkAssign, actor, nil); err != nil {
			taken.Release(seat)
			s.unlock(ctx, seat, owner)
			item.Result = dto.BulkItemFailed
			item.Error = appErrors.FromError(err).Message
			result.Add(item)
			continue
		}

		item.Result = dto.BulkItemSucceeded
		item.SeatNumber = &seat
		result.Add(item)
		s.publish(ctx, &booking, seat, models.AuditActionBulkAssign, actor)
	}

	s.logger.Info("bulk assignment finished",
		zap.Int("processed", result.Processed),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Int("unassigned", result.Unassigned),
		zap.String("request_id", requestid.FromContext(ctx)),
	)
	s.refresh(ctx)
	return result, nil
}

// selectBatch picks bookings awaiting a seat. Requested IDs that cannot be assigned are
// reported on result as failures.
func selectBatch(all []models.Booking, ids []string, result *dto.BulkAssignResult) []models.Booking {
	batch := make([]models.Booking, 0)
	if len(ids) == 0 {
		for _, b := range all {
			if b.NeedsSeat() {
				batch = append(batch, b)
			}
		}
		return batch
	}

	byID := make(map[string]models.Booking, len(all))
	for _, b := range all {
		byID[string(b.ID)] = b
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		b, ok := byID[id]
		switch {
		case !ok:
			result.Add(dto.BulkItemResult{BookingID: id, Result: dto.BulkItemFailed, Error: "booking not found"})
		case !b.NeedsSeat():
			result.Add(dto.BulkItemResult{BookingID: id, StudentID: b.StudentID, Result: dto.BulkItemFailed, Error: "booking is not awaiting a seat"})
		default:
			batch = append(batch, b)
		}
	}
	return batch
}

// addCommitted marks seats already persisted on approved bookings, skipping the excluded ones.
func addCommitted(taken seating.Occupancy, bookings []models.Booking, totalSeats int, exclude map[models.BookingID]struct{}) {
	for _, b := range bookings {
		if _, skip := exclude[b.ID]; skip {
			continue
		}
		if b.Status != models.BookingStatusApproved || !b.HasSeat() {
			continue
		}
		if *b.SeatNumber <= totalSeats {
			taken.Take(*b.SeatNumber)
		}
	}
}

// claim resolves a seat for identifier and locks it. Seats locked by another operator
// are treated as taken and resolution moves on.
func (s *ApprovalService) claim(ctx context.Context, identifier string, totalSeats int, taken seating.Occupancy, owner string) (int, bool) {
	local := taken.Clone()
	for {
		seat, ok := seating.Resolve(identifier, totalSeats, local)
		if !ok {
			return 0, false
		}
		if s.lock(ctx, seat, owner) {
			return seat, true
		}
		s.metrics.RecordLockContention()
		local.Take(seat)
	}
}

// lock reports false only when another owner holds the seat. Lock store failures are
// logged and treated as unlocked.
func (s *ApprovalService) lock(ctx context.Context, seat int, owner string) bool {
	if s.locks == nil {
		return true
	}
	ok, err := s.locks.Acquire(ctx, backend.ScopeKey(ctx), seat, owner, s.cfg.LockTTL)
	if err != nil {
		s.logger.Warn("seat lock unavailable", zap.Int("seat", seat), zap.Error(err))
		return true
	}
	return ok
}

// unlock frees a seat after a failed write. Committed seats keep their lock until it
// expires so operators working from an older booking listing still see them as held.
func (s *ApprovalService) unlock(ctx context.Context, seat int, owner string) {
	if s.locks == nil {
		return
	}
	if err := s.locks.Release(ctx, backend.ScopeKey(ctx), seat, owner); err != nil {
		s.logger.Warn("failed to release seat lock", zap.Int("seat", seat), zap.Error(err))
	}
}

func (s *ApprovalService) persist(ctx context.Context, booking *models.Booking, update models.BookingUpdate, action string, actor *models.JWTClaims, note *string) error {
	err := s.bookings.UpdateBooking(ctx, string(booking.ID), update)
	outcome := models.AuditOutcomeSucceeded
	if err != nil {
		outcome = models.AuditOutcomeFailed
		s.logger.Warn("booking update failed",
			zap.String("booking_id", string(booking.ID)),
			zap.String("action", action),
			zap.Error(err),
		)
	}
	s.metrics.RecordAssignment(action, outcome)
	s.audit(ctx, booking, update, action, outcome, err, actor, note)
	return err
}

func (s *ApprovalService) audit(ctx context.Context, booking *models.Booking, update models.BookingUpdate, action, outcome string, cause error, actor *models.JWTClaims, note *string) {
	if s.audits == nil {
		return
	}
	entry := &models.AssignmentAudit{
		BookingID:  string(booking.ID),
		StudentID:  booking.StudentID,
		Action:     action,
		Status:     update.Status,
		SeatNumber: update.SeatNumber,
		Outcome:    outcome,
		Note:       note,
		Scope:      backend.ScopeFromContext(ctx),
		RequestID:  requestid.FromContext(ctx),
	}
	if cause != nil {
		msg := appErrors.FromError(cause).Message
		entry.Error = &msg
	}
	if actor != nil && actor.UserID != "" {
		id := actor.UserID
		entry.ActorID = &id
	}
	// The booking decision already happened upstream; a lost audit row must not undo it.
	if err := s.audits.Create(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Error("failed to write assignment audit", zap.String("booking_id", entry.BookingID), zap.Error(err))
	}
}

func (s *ApprovalService) publish(ctx context.Context, booking *models.Booking, seat int, action string, actor *models.JWTClaims) {
	if s.events == nil {
		return
	}
	event := models.SeatAssignedEvent{
		BookingID:  string(booking.ID),
		StudentID:  booking.StudentID,
		SeatNumber: seat,
		Action:     action,
		Scope:      backend.ScopeFromContext(ctx),
		AssignedAt: time.Now().UTC(),
	}
	if actor != nil {
		event.ApprovedBy = actor.UserID
	}
	s.events.SeatAssigned(ctx, event)
}

func (s *ApprovalService) refresh(ctx context.Context) {
	if _, err := s.chart.Refresh(ctx); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			s.logger.Warn("chart refresh failed", zap.String("code", appErr.Code), zap.Error(err))
			return
		}
		s.logger.Warn("chart refresh failed", zap.Error(err))
	}
}
