package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/genricoloni/synecord/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultDebounce = 250 * time.Millisecond
	coverTimeout    = 5 * time.Second
)

// Engine feeds player events into the presence worker.
// It owns the monitor lifecycle and remembers the last track it announced,
// so only real changes reach the worker.
type Engine struct {
	logger   *zap.Logger
	cfg      domain.Config
	monitor  domain.Monitor
	fetcher  domain.CoverVerifier
	presence domain.Presence

	debounce time.Duration
	now      func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Loop state, only touched by runLoop
	player    string
	current   domain.TrackMetadata
	haveTrack bool
	status    domain.PlaybackStatus
}

// NewEngine creates a new orchestration engine
func NewEngine(
	logger *zap.Logger,
	cfg domain.Config,
	mon domain.Monitor,
	fetch domain.CoverVerifier,
	presence domain.Presence,
) *Engine {
	return &Engine{
		logger:   logger,
		cfg:      cfg,
		monitor:  mon,
		fetcher:  fetch,
		presence: presence,
		debounce: defaultDebounce,
		now:      time.Now,
	}
}

// Start pushes the configured display settings, starts the monitor and the
// event loop, and returns immediately.
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info("Engine starting...")

	mode := e.cfg.GetDisplayMode()
	e.presence.UpdateConfig(e.cfg.ShowWhenPaused(), &mode)
	if e.cfg.IsEnabled() {
		e.presence.Enable()
	} else {
		e.logger.Info("Discord presence disabled by configuration")
	}

	// The start context only bounds startup; the loop lives until Stop
	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	e.wg.Add(2)
	go func() {
		defer e.wg.Done()
		if err := e.monitor.Start(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			e.logger.Error("Player monitor failed", zap.Error(err))
		}
	}()
	go func() {
		defer e.wg.Done()
		e.runLoop(runCtx)
	}()
	return nil
}

type pendingEvent struct {
	event      domain.PlayerEvent
	receivedAt time.Time
}

// runLoop is the main event processing loop with debouncing.
// Skipping through tracks quickly only announces the track the user settles on.
func (e *Engine) runLoop(ctx context.Context) {
	events := e.monitor.Events()

	timer := time.NewTimer(e.debounce)
	timer.Stop()
	defer timer.Stop()

	var pending *pendingEvent

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Engine loop stopped")
			return

		case ev, ok := <-events:
			if !ok {
				e.logger.Info("Monitor events channel closed")
				if pending != nil {
					e.processEvent(ctx, *pending)
				}
				return
			}
			e.logger.Debug("Event received, debouncing...",
				zap.String("player", ev.Player),
				zap.String("title", ev.Metadata.SongName),
				zap.Bool("hasMetadata", ev.HasMetadata))

			// A position-only event must not hide a pending track change
			if pending != nil && pending.event.HasMetadata && !ev.HasMetadata &&
				pending.event.Player == ev.Player {
				pending.event.PositionMs = ev.PositionMs
				pending.receivedAt = e.now()
				if ev.Status != "" {
					pending.event.Status = ev.Status
				}
			} else {
				pending = &pendingEvent{event: ev, receivedAt: e.now()}
			}
			timer.Reset(e.debounce)

		case <-timer.C:
			if pending != nil {
				e.processEvent(ctx, *pending)
				pending = nil
			}
		}
	}
}

// processEvent turns one settled player event into presence commands
func (e *Engine) processEvent(ctx context.Context, p pendingEvent) {
	ev := p.event

	if !e.follows(ev) {
		e.logger.Debug("Ignoring event from another player",
			zap.String("player", ev.Player),
			zap.String("following", e.player))
		return
	}

	if ev.HasMetadata && (!e.haveTrack || !ev.Metadata.SameTrack(e.current)) {
		if ev.Metadata.SongName == "" && ev.Metadata.AuthorName == "" {
			e.handleStop(ev)
			return
		}
		e.player = ev.Player
		e.announceTrack(ctx, ev.Metadata)
	}

	if !e.haveTrack {
		return
	}

	if ev.Status != "" && ev.Status != e.status {
		e.logger.Info("Playback state changed", zap.String("status", string(ev.Status)))
		e.presence.UpdatePlayState(ev.Status)
		e.status = ev.Status
	}

	// The position was sampled when the event arrived; the debounce delay is added back
	position := ev.PositionMs
	if e.status == domain.StatusPlaying {
		position += float64(e.now().Sub(p.receivedAt).Milliseconds())
	}
	var total float64
	if e.current.DurationMs != nil {
		total = *e.current.DurationMs
	}
	e.presence.UpdateTimeline(position, total)
}

// follows reports whether ev belongs to the player being shown. Another
// player takes over only once it starts playing a track.
func (e *Engine) follows(ev domain.PlayerEvent) bool {
	if e.player == "" || ev.Player == e.player {
		return true
	}
	return ev.HasMetadata && ev.Status == domain.StatusPlaying &&
		(ev.Metadata.SongName != "" || ev.Metadata.AuthorName != "")
}

// handleStop pauses the presence when the followed player stops or goes away.
// The track is kept, so resuming it only sends the new state.
func (e *Engine) handleStop(ev domain.PlayerEvent) {
	if !e.haveTrack {
		e.logger.Debug("Ignoring event without a track", zap.String("player", ev.Player))
		return
	}
	if e.status == domain.StatusPaused {
		return
	}
	e.logger.Info("Playback stopped", zap.String("player", ev.Player))
	e.presence.UpdatePlayState(domain.StatusPaused)
	e.status = domain.StatusPaused
}

func (e *Engine) announceTrack(ctx context.Context, meta domain.TrackMetadata) {
	e.current = meta
	e.haveTrack = true
	// Resent so the worker's fresh snapshot gets the current state
	e.status = ""

	if e.cfg.VerifyCovers() && meta.CoverURL != "" {
		vctx, cancel := context.WithTimeout(ctx, coverTimeout)
		err := e.fetcher.Verify(vctx, meta.CoverURL)
		cancel()
		if err != nil {
			e.logger.Warn("Cover unavailable, falling back to the app icon",
				zap.String("url", meta.CoverURL),
				zap.Error(err))
			meta.CoverURL = ""
		}
	}

	e.logger.Info("Track changed",
		zap.String("track", meta.SongName),
		zap.String("artist", meta.AuthorName),
		zap.String("album", meta.AlbumName))
	e.presence.UpdateMetadata(meta)
}

// Stop halts the monitor and the loop, clears the presence and waits for the
// worker to exit or ctx to expire.
func (e *Engine) Stop(ctx context.Context) error {
	e.logger.Info("Engine stopping...")

	if e.cancel != nil {
		e.cancel()
	}
	if err := e.monitor.Stop(ctx); err != nil {
		e.logger.Warn("Failed to stop player monitor", zap.Error(err))
	}
	e.wg.Wait()

	e.presence.Disable()
	e.presence.Shutdown()

	select {
	case <-e.presence.Done():
		e.logger.Info("Presence worker stopped")
		return nil
	case <-ctx.Done():
		e.logger.Warn("Timed out waiting for presence worker", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}
