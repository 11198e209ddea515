package offline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/staydesk/backend/internal/domain/booking"
	"github.com/staydesk/backend/internal/domain/property"
	"github.com/staydesk/backend/internal/infrastructure/mirror"
	"github.com/staydesk/backend/internal/infrastructure/telemetry"
)

const defaultRefreshTimeout = 30 * time.Second

// ErrOffline is returned by RefreshFromRemote while the controller is offline
var ErrOffline = errors.New("remote data service is offline")

// Refresh outcomes reported to the Recorder
const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeOffline   = "offline"
	OutcomeStale     = "stale"
	OutcomeCancelled = "cancelled"
)

// Status is the connectivity badge shown by views
type Status string

const (
	StatusOnline  Status = "online"
	StatusSyncing Status = "syncing"
	StatusOffline Status = "offline"
	StatusError   Status = "error"
)

// Remote fetches full collections from the remote data service
type Remote interface {
	FetchReservations(ctx context.Context) ([]booking.Reservation, error)
	FetchPayments(ctx context.Context) ([]booking.Payment, error)
	FetchProperties(ctx context.Context) ([]property.Property, error)
}

// Mirror persists snapshots locally so views render after a restart
type Mirror interface {
	Replace(ctx context.Context, snap mirror.Snapshot) error
	Load(ctx context.Context) (mirror.Snapshot, error)
	MarkSynced(ctx context.Context, at time.Time) error
	LastSynced(ctx context.Context) (time.Time, bool, error)
}

// Recorder receives sync metrics
type Recorder interface {
	ObserveRefresh(outcome string, d time.Duration)
	SetOnline(online bool)
	SetSyncInProgress(inProgress bool)
	SetMirrorRecords(collection string, n int)
	FeedEventReceived()
}

type nopRecorder struct{}

func (nopRecorder) ObserveRefresh(string, time.Duration) {}
func (nopRecorder) SetOnline(bool)                       {}
func (nopRecorder) SetSyncInProgress(bool)               {}
func (nopRecorder) SetMirrorRecords(string, int)         {}
func (nopRecorder) FeedEventReceived()                   {}

// Result describes one refresh
type Result struct {
	Generation   uint64    `json:"generation"`
	Reservations int       `json:"reservations"`
	Payments     int       `json:"payments"`
	Properties   int       `json:"properties"`
	SyncedAt     time.Time `json:"synced_at"`
	// Discarded is set when a newer snapshot was already applied
	Discarded bool `json:"discarded,omitempty"`
	// MirrorError is set when the state was replaced but the mirror write failed
	MirrorError string `json:"mirror_error,omitempty"`
}

// StatusReport is the controller's view of connectivity and freshness
type StatusReport struct {
	Status         Status         `json:"status"`
	Online         bool           `json:"online"`
	SyncInProgress bool           `json:"sync_in_progress"`
	LastSyncedAt   *time.Time     `json:"last_synced_at,omitempty"`
	LastError      string         `json:"last_error,omitempty"`
	Generation     uint64         `json:"generation"`
	Counts         map[string]int `json:"counts"`
}

// Controller is the only writer of the State and the Mirror in response to
// network events. Refreshes are coalesced and stale results are dropped.
type Controller struct {
	state    *State
	remote   Remote
	mirror   Mirror
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
	timeout  time.Duration

	group   singleflight.Group
	issued  atomic.Uint64
	applyMu sync.Mutex
	applied uint64
}

// ControllerOption configures a Controller
type ControllerOption func(*Controller)

// WithMirror sets the local mirror. Without one, refreshes only touch the State.
func WithMirror(m Mirror) ControllerOption {
	return func(c *Controller) {
		c.mirror = m
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) ControllerOption {
	return func(c *Controller) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithRefreshTimeout bounds one shared fetch. The fetch does not follow any
// single caller's context, so this is what stops a hung remote. Zero means
// defaultRefreshTimeout.
func WithRefreshTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithNow overrides the clock
func WithNow(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.now = now
	}
}

// NewController creates a controller over state and remote
func NewController(state *State, remote Remote, opts ...ControllerOption) *Controller {
	c := &Controller{
		state:    state,
		remote:   remote,
		recorder: nopRecorder{},
		logger:   zap.NewNop(),
		now:      time.Now,
		timeout:  defaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the controlled state
func (c *Controller) State() *State {
	return c.state
}

// MarkOnline sets the online flag. It does not refetch.
func (c *Controller) MarkOnline() {
	if c.state.SetOnline(true) {
		c.logger.Info("remote data service reachable")
	}
	c.recorder.SetOnline(true)
}

// MarkOffline clears the online flag. It does not refetch.
func (c *Controller) MarkOffline() {
	if c.state.SetOnline(false) {
		c.logger.Warn("remote data service unreachable, serving from mirror")
	}
	c.recorder.SetOnline(false)
}

// SetSyncInProgress toggles the syncing badge. Nothing is gated on it.
func (c *Controller) SetSyncInProgress(inProgress bool) {
	c.state.SetSyncInProgress(inProgress)
	c.recorder.SetSyncInProgress(inProgress)
}

// RefreshFromRemote fetches every collection and, on success, replaces the
// State and the Mirror with the result. Offline it returns ErrOffline and
// touches nothing. On failure the previous snapshot is kept, the error is
// stored as the State's last error, and a wrapped error is returned.
// Concurrent callers share one fetch. It runs detached from the callers'
// contexts under the refresh timeout: a caller whose ctx ends gets ctx.Err()
// back while the fetch carries on for everyone else.
func (c *Controller) RefreshFromRemote(ctx context.Context) (Result, error) {
	if !c.state.IsOnline() {
		c.recorder.ObserveRefresh(OutcomeOffline, 0)
		return Result{}, ErrOffline
	}

	ch := c.group.DoChan("refresh", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.refresh(fetchCtx)
	})
	select {
	case <-ctx.Done():
		return Result{}, fmt.Errorf("refresh from remote: %w", ctx.Err())
	case res := <-ch:
		result, _ := res.Val.(Result)
		return result, res.Err
	}
}

func (c *Controller) refresh(ctx context.Context) (_ Result, err error) {
	gen := c.issued.Add(1)
	ctx, span := telemetry.StartServiceSpan(ctx, "sync", "refresh", telemetry.AttrGeneration.Int64(int64(gen)))
	defer func() { telemetry.Finish(span, err) }()

	start := c.now()
	c.SetSyncInProgress(true)
	defer c.SetSyncInProgress(false)

	snap, fetchErr := c.fetch(ctx)
	if fetchErr != nil {
		err = fetchErr
		outcome := OutcomeError
		if errors.Is(err, context.Canceled) {
			outcome = OutcomeCancelled
		} else {
			c.state.SetLastError(err)
		}
		c.recorder.ObserveRefresh(outcome, c.now().Sub(start))
		c.logger.Warn("refresh from remote failed, keeping previous snapshot",
			zap.Uint64("generation", gen),
			zap.Error(err),
		)
		span.SetAttributes(telemetry.AttrOutcome.String(string(outcome)))
		return Result{Generation: gen}, fmt.Errorf("refresh from remote: %w", err)
	}

	result := c.apply(context.WithoutCancel(ctx), gen, snap)
	if result.Discarded {
		c.recorder.ObserveRefresh(OutcomeStale, c.now().Sub(start))
		span.SetAttributes(telemetry.AttrOutcome.String(string(OutcomeStale)))
		c.logger.Info("discarding stale refresh result", zap.Uint64("generation", gen))
		return result, nil
	}

	c.recorder.ObserveRefresh(OutcomeSuccess, c.now().Sub(start))
	c.logger.Info("refreshed from remote",
		zap.Uint64("generation", gen),
		zap.Int("reservations", result.Reservations),
		zap.Int("payments", result.Payments),
		zap.Int("properties", result.Properties),
		zap.Duration("duration", c.now().Sub(start)),
	)
	span.SetAttributes(telemetry.AttrOutcome.String(string(OutcomeSuccess)))
	return result, nil
}

func (c *Controller) fetch(ctx context.Context) (mirror.Snapshot, error) {
	var snap mirror.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rs, err := c.remote.FetchReservations(gctx)
		snap.Reservations = rs
		return err
	})
	g.Go(func() error {
		ps, err := c.remote.FetchPayments(gctx)
		snap.Payments = ps
		return err
	})
	g.Go(func() error {
		ps, err := c.remote.FetchProperties(gctx)
		snap.Properties = ps
		return err
	})
	if err := g.Wait(); err != nil {
		return mirror.Snapshot{}, err
	}
	return snap, nil
}

// apply installs snap unless a newer generation is already in place. The
// State is replaced first; a failed mirror write is reported on the result.
func (c *Controller) apply(ctx context.Context, gen uint64, snap mirror.Snapshot) Result {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	if gen <= c.applied {
		return Result{Generation: gen, Discarded: true}
	}
	c.applied = gen

	syncedAt := c.now().UTC()
	c.state.ReplaceAll(snap.Reservations, snap.Payments, snap.Properties)
	c.state.MarkSynced(syncedAt)
	c.state.SetLastError(nil)

	result := Result{
		Generation:   gen,
		Reservations: len(snap.Reservations),
		Payments:     len(snap.Payments),
		Properties:   len(snap.Properties),
		SyncedAt:     syncedAt,
	}

	if c.mirror != nil {
		if err := c.writeMirror(ctx, snap, syncedAt); err != nil {
			result.MirrorError = err.Error()
			c.logger.Error("failed to write mirror snapshot", zap.Uint64("generation", gen), zap.Error(err))
		}
	}
	return result
}

func (c *Controller) writeMirror(ctx context.Context, snap mirror.Snapshot, syncedAt time.Time) error {
	if err := c.mirror.Replace(ctx, snap); err != nil {
		return err
	}
	if err := c.mirror.MarkSynced(ctx, syncedAt); err != nil {
		return err
	}
	c.recorder.SetMirrorRecords(mirror.CollectionReservations, len(snap.Reservations))
	c.recorder.SetMirrorRecords(mirror.CollectionPayments, len(snap.Payments))
	c.recorder.SetMirrorRecords(mirror.CollectionProperties, len(snap.Properties))
	return nil
}

// LoadFromMirror fills the State from the mirror so views render before the
// first successful refresh. It is a no-op without a mirror.
func (c *Controller) LoadFromMirror(ctx context.Context) (Result, error) {
	if c.mirror == nil {
		return Result{}, nil
	}
	snap, err := c.mirror.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load mirror: %w", err)
	}
	at, ok, err := c.mirror.LastSynced(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load sync marker: %w", err)
	}

	c.applyMu.Lock()
	c.state.ReplaceAll(snap.Reservations, snap.Payments, snap.Properties)
	if ok {
		c.state.MarkSynced(at)
	}
	c.applyMu.Unlock()

	c.recorder.SetMirrorRecords(mirror.CollectionReservations, len(snap.Reservations))
	c.recorder.SetMirrorRecords(mirror.CollectionPayments, len(snap.Payments))
	c.recorder.SetMirrorRecords(mirror.CollectionProperties, len(snap.Properties))
	c.logger.Info("loaded snapshot from mirror",
		zap.Int("reservations", len(snap.Reservations)),
		zap.Int("payments", len(snap.Payments)),
		zap.Int("properties", len(snap.Properties)),
		zap.Bool("previously_synced", ok),
	)

	return Result{
		Reservations: len(snap.Reservations),
		Payments:     len(snap.Payments),
		Properties:   len(snap.Properties),
		SyncedAt:     at,
	}, nil
}

// Status reports connectivity and freshness
func (c *Controller) Status() StatusReport {
	snap := c.state.Snapshot()
	report := StatusReport{
		Online:         snap.Online,
		SyncInProgress: snap.SyncInProgress,
		LastSyncedAt:   snap.LastSyncedAt,
		LastError:      snap.LastError,
		Counts: map[string]int{
			mirror.CollectionReservations: len(snap.Reservations),
			mirror.CollectionPayments:     len(snap.Payments),
			mirror.CollectionProperties:   len(snap.Properties),
		},
	}
	c.applyMu.Lock()
	report.Generation = c.applied
	c.applyMu.Unlock()

	switch {
	case snap.SyncInProgress:
		report.Status = StatusSyncing
	case !snap.Online:
		report.Status = StatusOffline
	case snap.LastError != "":
		report.Status = StatusError
	default:
		report.Status = StatusOnline
	}
	return report
}
