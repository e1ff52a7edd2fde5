// Package backend is the HTTP client for the library REST backend that owns
// students, bookings and the library profile.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/library-seat-api/internal/models"
	appErrors "github.com/noah-isme/library-seat-api/pkg/errors"
	"github.com/noah-isme/library-seat-api/pkg/middleware/requestid"
)

const maxErrorBody = 4 << 10

// Observer receives call timings. MetricsService satisfies it.
type Observer interface {
	ObserveBackendCall(operation string, status int, duration time.Duration)
}

// Config configures a Client.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	ServiceToken string
}

// Client calls the library backend.
type Client struct {
	baseURL      string
	serviceToken string
	http         *http.Client
	observer     Observer
	logger       *zap.Logger
}

// NewClient constructs a Client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client, observer Observer, logger *zap.Logger) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		serviceToken: cfg.ServiceToken,
		http:         httpClient,
		observer:     observer,
		logger:       logger,
	}
}

// ListStudents fetches registered students oldest first.
func (c *Client) ListStudents(ctx context.Context, limit int) ([]models.Student, error) {
	query := url.Values{}
	query.Set("order", "created_at:asc")
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var students []models.Student
	if err := c.do(ctx, "list_students", http.MethodGet, "/admin/students?"+query.Encode(), nil, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// Stats fetches the library dashboard counters including capacity.
func (c *Client) Stats(ctx context.Context) (*models.LibraryStats, error) {
	var stats models.LibraryStats
	if err := c.do(ctx, "stats", http.MethodGet, "/admin/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListBookings fetches every seat booking.
func (c *Client) ListBookings(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := c.do(ctx, "list_bookings", http.MethodGet, "/booking/seat-bookings", nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// GetBooking resolves a single booking from the listing; the backend has no item endpoint.
func (c *Client) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	bookings, err := c.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		if string(bookings[i].ID) == id {
			return &bookings[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
}

// UpdateBooking persists a status and optional seat on one booking.
func (c *Client) UpdateBooking(ctx context.Context, id string, update models.BookingUpdate) error {
	if id == "" {
		return appErrors.Clone(appErrors.ErrValidation, "booking id is required")
	}
	return c.do(ctx, "update_booking", http.MethodPut, "/booking/seat-bookings/"+url.PathEscape(id), update, nil)
}

func (c *Client) do(ctx context.Context, operation, method, path string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if reqID := requestid.FromContext(ctx); reqID != "" {
		req.Header.Set(requestid.HeaderKey, reqID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.observe(operation, 0, duration)
		c.logger.Warn("backend call failed", zap.String("operation", operation), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, appErrors.ErrBackendUnavailable.Message)
	}
	defer resp.Body.Close()
	c.observe(operation, resp.StatusCode, duration)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(operation, resp)
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, "failed to read backend response")
	}
	if err := decodeEnvelope(raw, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrBackend.Code, appErrors.ErrBackend.Status, fmt.Sprintf("unexpected %s response", operation))
	}
	return nil
}

func (c *Client) statusError(operation string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	message := upstreamMessage(raw)
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	c.logger.Warn("backend rejected call",
		zap.String("operation", operation),
		zap.Int("status", resp.StatusCode),
		zap.String("message", message),
	)
	cause := &StatusError{Operation: operation, StatusCode: resp.StatusCode, Message: message}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return appErrors.Wrap(cause, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, message)
	case resp.StatusCode == http.StatusUnauthorized:
		return appErrors.Wrap(cause, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, message)
	case resp.StatusCode == http.StatusForbidden:
		return appErrors.Wrap(cause, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, message)
	case resp.StatusCode == http.StatusConflict:
		return appErrors.Wrap(cause, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message)
	case resp.StatusCode >= 500:
		return appErrors.Wrap(cause, appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, message)
	default:
		return appErrors.Wrap(cause, appErrors.ErrBackend.Code, appErrors.ErrBackend.Status, message)
	}
}

func (c *Client) observe(operation string, status int, duration time.Duration) {
	if c.observer != nil {
		c.observer.ObserveBackendCall(operation, status, duration)
	}
}

func (c *Client) token(ctx context.Context) string {
	if token := TokenFromContext(ctx); token != "" {
		return token
	}
	return c.serviceToken
}

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s: status %d: %s", e.Operation, e.StatusCode, e.Message)
}

// StatusCode extracts the upstream HTTP status from err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
