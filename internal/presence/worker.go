package presence

import (
	"fmt"
	"time"

	"github.com/genricoloni/synecord/internal/domain"
	"go.uber.org/zap"
)

// endThresholdS absorbs position jitter: a new end timestamp closer than this
// to the last one sent is not worth a round trip.
const endThresholdS int64 = 2

// worker is the presence state machine. It is owned by a single goroutine.
type worker struct {
	logger *zap.Logger
	gw     *gateway
	now    func() time.Time

	appName    string
	listenBase string

	snap           *snapshot
	enabled        bool
	lastSentEnd    *int64
	showWhenPaused bool
	displayMode    domain.DisplayMode
}

func newWorker(logger *zap.Logger, connector domain.Connector, o options) *worker {
	return &worker{
		logger:      logger,
		gw:          newGateway(logger, connector),
		now:         o.now,
		appName:     o.appName,
		listenBase:  o.listenBaseURL,
		displayMode: domain.DisplayName,
	}
}

// run processes commands until the channel is closed. A receive that times out
// while disconnected drives the reconnect.
func (w *worker) run(commands <-chan Command, tick time.Duration) {
	timer := time.NewTimer(tick)
	defer timer.Stop()
	defer w.gw.close()

	for {
		select {
		case cmd, ok := <-commands:
			if !ok {
				w.logger.Info("Presence worker stopped")
				return
			}
			w.handle(cmd)
		case <-timer.C:
			w.idleTick()
		}
		timer.Reset(tick)
	}
}

// handle applies a command and synchronizes.
func (w *worker) handle(cmd Command) {
	w.apply(cmd)
	w.synchronize()
}

// idleTick only has work to do while disconnected.
func (w *worker) idleTick() {
	if !w.gw.connected() {
		w.synchronize()
	}
}

func (w *worker) apply(cmd Command) {
	switch c := cmd.(type) {
	case EnableCommand:
		w.logger.Info("Enabling Discord presence")
		w.enabled = true
		w.gw.resetCooldown()

	case DisableCommand:
		w.logger.Info("Disabling Discord presence")
		w.enabled = false
		w.disconnect()

	case ConfigCommand:
		w.showWhenPaused = c.ShowWhenPaused
		if c.DisplayMode != nil {
			w.displayMode = *c.DisplayMode
		}
		w.logger.Info("Presence config updated",
			zap.Bool("showWhenPaused", w.showWhenPaused),
			zap.Stringer("displayMode", w.displayMode))
		w.lastSentEnd = nil

	case MetadataCommand:
		if w.snap == nil {
			w.snap = newSnapshot(c.Metadata, w.listenBase)
		} else {
			w.snap.setMetadata(c.Metadata, w.listenBase)
		}
		w.lastSentEnd = nil

	case PlayStateCommand:
		if w.snap == nil {
			return
		}
		if c.Status == domain.StatusPlaying && w.snap.status != domain.StatusPlaying {
			w.lastSentEnd = nil
		}
		w.snap.status = c.Status

	case TimelineCommand:
		if w.snap != nil {
			w.snap.currentTimeMs = c.CurrentTimeMs
		}
	}
}

func (w *worker) disconnect() {
	w.gw.close()
	w.lastSentEnd = nil
}

func (w *worker) synchronize() {
	if !w.enabled {
		if w.gw.connected() {
			w.disconnect()
		}
		return
	}

	if w.snap == nil {
		if w.gw.connected() {
			if err := w.gw.clearActivity(); err != nil {
				w.logger.Debug("Failed to clear Discord activity", zap.Error(err))
			}
			w.lastSentEnd = nil
		}
		return
	}

	if !w.gw.connected() {
		if !w.gw.connect() {
			return
		}
		w.lastSentEnd = nil
	}

	if err := w.update(); err != nil {
		w.logger.Warn("Discord update failed, reconnecting", zap.Error(err))
		w.disconnect()
	}
}

// update pushes the snapshot to Discord if anything visible changed.
func (w *worker) update() error {
	s := w.snap
	activity := buildActivity(s, w.displayMode, w.appName)

	if s.status != domain.StatusPlaying {
		if !w.showWhenPaused {
			w.logger.Debug("Paused and hidden, clearing activity")
			if err := w.gw.clearActivity(); err != nil {
				return fmt.Errorf("failed to clear activity: %w", err)
			}
			w.lastSentEnd = nil
			return nil
		}

		if duration, ok := s.durationMs(); ok {
			start, end := pausedTimestamps(s.currentTimeMs, duration, w.now())
			w.logger.Debug("Applying paused timestamps",
				zap.Int64("futureStart", start),
				zap.Int64("futureEnd", end))
			activity.Timestamps = &domain.Timestamps{Start: start, End: end}
			activity.Assets.SmallText = pausedText
		}
		w.lastSentEnd = nil
		return w.send(activity)
	}

	duration, ok := s.durationMs()
	if !ok {
		if w.lastSentEnd == nil {
			return nil
		}
		w.logger.Warn("Track has no duration, clearing timestamps")
		if err := w.send(activity); err != nil {
			return err
		}
		w.lastSentEnd = nil
		return nil
	}

	start, end := playingTimestamps(s.currentTimeMs, duration, w.now())
	if start == 0 && end == 0 {
		w.logger.Debug("Position is past the track end, skipping update")
		return nil
	}

	if w.lastSentEnd != nil {
		diff := *w.lastSentEnd - end
		if diff < 0 {
			diff = -diff
		}
		if diff < endThresholdS {
			return nil
		}
		w.logger.Debug("Progress moved beyond threshold",
			zap.Int64("diffS", diff),
			zap.Int64("thresholdS", endThresholdS))
	}

	activity.Timestamps = &domain.Timestamps{Start: start, End: end}
	if err := w.send(activity); err != nil {
		return err
	}
	w.lastSentEnd = &end
	return nil
}

func (w *worker) send(activity *domain.Activity) error {
	w.logger.Debug("Updating Discord activity",
		zap.String("song", w.snap.metadata.SongName),
		zap.String("status", string(w.snap.status)))

	if err := w.gw.setActivity(activity); err != nil {
		return fmt.Errorf("failed to set activity: %w", err)
	}
	return nil
}
