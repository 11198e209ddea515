package offline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/staydesk/backend/internal/domain/shared"
	"github.com/staydesk/backend/internal/infrastructure/config"
)

// Prober checks whether the remote data service is reachable
type Prober interface {
	Health(ctx context.Context) error
}

// Feed streams change notices from the remote data service. Subscribe blocks
// until ctx ends (returning nil) or the connection drops.
type Feed interface {
	Subscribe(ctx context.Context, onNotice func(shared.ChangeNotice)) error
}

// Watcher drives the Controller from connectivity probes and the change feed.
// Only the probe decides connectivity; feed disconnects are just logged.
type Watcher struct {
	ctrl   *Controller
	prober Prober
	feed   Feed
	cfg    config.SyncConfig
	logger *zap.Logger

	newBackOff func() backoff.BackOff
	feedRetry  time.Duration
	limiter    *rate.Limiter

	reconnectCh chan struct{}
	changeCh    chan struct{}
}

// WatcherOption configures a Watcher
type WatcherOption func(*Watcher)

// WithFeed enables change-feed driven refreshes
func WithFeed(feed Feed) WatcherOption {
	return func(w *Watcher) {
		w.feed = feed
	}
}

// WithWatcherLogger sets a custom logger
func WithWatcherLogger(logger *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithBackOff overrides the reconnect refresh retry policy
func WithBackOff(newBackOff func() backoff.BackOff) WatcherOption {
	return func(w *Watcher) {
		w.newBackOff = newBackOff
	}
}

// WithFeedRetry sets the delay before redialling a dropped feed
func WithFeedRetry(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.feedRetry = d
	}
}

// NewWatcher creates a watcher. The feed is used only when cfg.FeedEnabled is set.
func NewWatcher(ctrl *Controller, prober Prober, cfg config.SyncConfig, opts ...WatcherOption) *Watcher {
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = 15 * time.Second
	}
	if cfg.MaxRetryElapsed <= 0 {
		cfg.MaxRetryElapsed = 2 * time.Minute
	}
	if cfg.FeedMinInterval <= 0 {
		cfg.FeedMinInterval = 2 * time.Second
	}

	w := &Watcher{
		ctrl:        ctrl,
		prober:      prober,
		cfg:         cfg,
		logger:      zap.NewNop(),
		feedRetry:   5 * time.Second,
		reconnectCh: make(chan struct{}, 1),
		changeCh:    make(chan struct{}, 1),
	}
	w.newBackOff = func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = time.Second
		b.MaxInterval = 30 * time.Second
		b.MaxElapsedTime = w.cfg.MaxRetryElapsed
		return b
	}
	for _, opt := range opts {
		opt(w)
	}
	w.limiter = rate.NewLimiter(rate.Every(w.cfg.FeedMinInterval), 1)
	return w
}

// Run probes immediately and then every ProbeInterval until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		w.probeLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		w.refreshLoop(ctx)
	}()

	if w.feed != nil && w.cfg.FeedEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.feedLoop(ctx)
		}()
	}

	wg.Wait()
	return nil
}

// Probe runs one connectivity check and applies any transition
func (w *Watcher) Probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, w.cfg.ProbeInterval)
	defer cancel()

	err := w.prober.Health(probeCtx)
	if ctx.Err() != nil {
		return
	}
	wasOnline := w.ctrl.State().IsOnline()

	switch {
	case err == nil && !wasOnline:
		w.ctrl.MarkOnline()
		if w.cfg.RefreshOnReconnect {
			signal(w.reconnectCh)
		}
	case err != nil && wasOnline:
		w.logger.Warn("health probe failed", zap.Error(err))
		w.ctrl.MarkOffline()
	}
}

func (w *Watcher) probeLoop(ctx context.Context) {
	w.Probe(ctx)

	ticker := time.NewTicker(w.cfg.ProbeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Probe(ctx)
		}
	}
}

func (w *Watcher) refreshLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.reconnectCh:
			w.refreshWithRetry(ctx)
		case <-w.changeCh:
			if err := w.limiter.Wait(ctx); err != nil {
				return
			}
			if _, err := w.ctrl.RefreshFromRemote(ctx); err != nil && !errors.Is(err, ErrOffline) {
				w.logger.Warn("change-triggered refresh failed", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) refreshWithRetry(ctx context.Context) {
	op := func() error {
		_, err := w.ctrl.RefreshFromRemote(ctx)
		if errors.Is(err, ErrOffline) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		w.logger.Warn("reconnect refresh failed, retrying",
			zap.Error(err),
			zap.Duration("next_attempt_in", next),
		)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(w.newBackOff(), ctx), notify); err != nil && ctx.Err() == nil {
		w.logger.Error("giving up on reconnect refresh", zap.Error(err))
	}
}

func (w *Watcher) feedLoop(ctx context.Context) {
	for {
		if w.ctrl.State().IsOnline() {
			err := w.feed.Subscribe(ctx, w.onNotice)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				w.logger.Warn("change feed disconnected", zap.Error(err))
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.feedRetry):
		}
	}
}

func (w *Watcher) onNotice(n shared.ChangeNotice) {
	w.ctrl.recorder.FeedEventReceived()
	w.logger.Debug("change notice received",
		zap.String("type", n.Type),
		zap.String("entity", n.Entity),
		zap.String("key", n.Key),
	)
	signal(w.changeCh)
}

// signal performs a non-blocking send so pending requests coalesce
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
