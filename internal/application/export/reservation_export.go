// Package export builds reservation reports and optionally publishes them to
// object storage.
package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/property"
	"github.com/staydesk/backend/internal/domain/shared"
	"github.com/staydesk/backend/internal/domain/shared/capability"
	"github.com/staydesk/backend/internal/infrastructure/export"
	"github.com/staydesk/backend/internal/infrastructure/telemetry"
)

// FileStorage stores generated files and hands out download links
type FileStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	DownloadURL(ctx context.Context, key string) (string, time.Time, error)
}

// Request selects reservations and the output format
type Request struct {
	Filter booking.ReservationFilter
	Format string
	// Upload stores the file and returns a presigned link
	Upload bool
}

// Result is a generated file
type Result struct {
	FileName     string     `json:"file_name"`
	ContentType  string     `json:"content_type"`
	Rows         int        `json:"rows"`
	URL          string     `json:"url,omitempty"`
	URLExpiresAt *time.Time `json:"url_expires_at,omitempty"`
	Data         []byte     `json:"-"`
}

var reservationHeaders = []string{
	"Booking ID", "Guest", "Phone", "Email", "Property",
	"Check-in", "Check-out", "Nights", "Adults", "Children",
	"Status", "Source", "Total", "Paid", "Balance Due", "Payment State", "Created",
}

// ReservationExporter renders reservations with their payment position
type ReservationExporter struct {
	reservations booking.ReservationRepository
	payments     booking.PaymentRepository
	properties   property.Repository
	registry     *capability.Registry
	now          func() time.Time
	logger       *zap.Logger
}

// NewReservationExporter creates a ReservationExporter. Uploads use the
// export.storage capability when it is registered.
func NewReservationExporter(
	reservations booking.ReservationRepository,
	payments booking.PaymentRepository,
	properties property.Repository,
	registry *capability.Registry,
	logger *zap.Logger,
) *ReservationExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationExporter{
		reservations: reservations,
		payments:     payments,
		properties:   properties,
		registry:     registry,
		now:          time.Now,
		logger:       logger,
	}
}

// Export builds the report
func (e *ReservationExporter) Export(ctx context.Context, req Request) (_ *Result, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "export", "reservations", telemetry.AttrFormat.String(req.Format))
	defer func() { telemetry.Finish(span, err) }()

	encoder, err := export.ForFormat(req.Format)
	if err != nil {
		return nil, shared.NewValidationError(err.Error())
	}

	table, err := e.buildTable(ctx, req.Filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := encoder.Encode(&buf, table); err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	now := e.now().UTC()
	result := &Result{
		FileName:    fmt.Sprintf("reservations-%s.%s", now.Format("20060102-150405"), encoder.Extension()),
		ContentType: encoder.ContentType(),
		Rows:        len(table.Rows),
		Data:        buf.Bytes(),
	}

	if req.Upload {
		if err := e.upload(ctx, result, now); err != nil {
			return nil, err
		}
	}

	e.logger.Info("Reservation export generated",
		zap.String("file", result.FileName),
		zap.Int("rows", result.Rows),
		zap.Bool("uploaded", result.URL != ""))
	return result, nil
}

func (e *ReservationExporter) upload(ctx context.Context, result *Result, now time.Time) error {
	store, ok := capability.Lookup[FileStorage](e.registry, capability.ExportStorage)
	if !ok {
		e.logger.Warn("Export upload requested but no storage is configured")
		return nil
	}
	key := "exports/" + now.Format("2006/01/02") + "/" + result.FileName
	if err := store.Upload(ctx, key, result.Data, result.ContentType); err != nil {
		return fmt.Errorf("upload export: %w", err)
	}
	url, expiresAt, err := store.DownloadURL(ctx, key)
	if err != nil {
		return fmt.Errorf("presign export: %w", err)
	}
	result.URL = url
	result.URLExpiresAt = &expiresAt
	return nil
}

func (e *ReservationExporter) buildTable(ctx context.Context, filter booking.ReservationFilter) (export.Table, error) {
	reservations, err := e.reservations.FindAll(ctx, filter)
	if err != nil {
		return export.Table{}, fmt.Errorf("load reservations: %w", err)
	}
	payments, err := e.payments.FindAll(ctx, shared.Filter{})
	if err != nil {
		return export.Table{}, fmt.Errorf("load payments: %w", err)
	}
	properties, err := e.properties.FindAll(ctx, false)
	if err != nil {
		return export.Table{}, fmt.Errorf("load properties: %w", err)
	}

	names := make(map[uuid.UUID]string, len(properties))
	for _, p := range properties {
		names[p.ID] = p.Name
	}
	byBooking := make(map[string][]booking.Payment)
	for _, p := range payments {
		byBooking[p.BookingID] = append(byBooking[p.BookingID], p)
	}

	rows := make([][]any, 0, len(reservations))
	for i := range reservations {
		r := &reservations[i]
		ledger := booking.NewLedger(r, byBooking[r.BookingID])
		propertyName, ok := names[r.PropertyID]
		if !ok {
			propertyName = "Unknown property"
		}
		rows = append(rows, []any{
			r.BookingID, r.GuestName, r.GuestPhone, r.GuestEmail, propertyName,
			r.CheckIn, r.CheckOut, r.Nights, r.Adults, r.Children,
			string(r.Status), string(r.Source), r.TotalAmount, ledger.Paid, ledger.BalanceDue,
			string(ledger.State), r.CreatedAt,
		})
	}

	return export.Table{
		Sheet:   "Reservations",
		Title:   "Reservations exported " + e.now().Format("02 Jan 2006 15:04"),
		Headers: reservationHeaders,
		Rows:    rows,
	}, nil
}
