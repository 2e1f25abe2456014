package presence

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/genricoloni/synecord/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultTickInterval = time.Second
	defaultQueueSize    = 64
	defaultAppName      = "SPlayer"
)

// ErrMissingDependency is returned by Init when a required argument is nil
var ErrMissingDependency = errors.New("missing dependency")

type options struct {
	appName       string
	listenBaseURL string
	tickInterval  time.Duration
	queueSize     int
	now           func() time.Time
}

// Option customizes a Handle
type Option func(*options)

// WithAppName sets the hover text of the small icon
func WithAppName(name string) Option {
	return func(o *options) { o.appName = name }
}

// WithListenBaseURL sets the base of the "Listen" button link
func WithListenBaseURL(base string) Option {
	return func(o *options) { o.listenBaseURL = base }
}

// WithTickInterval sets the receive timeout that paces reconnect attempts
func WithTickInterval(d time.Duration) Option {
	return func(o *options) { o.tickInterval = d }
}

// WithQueueSize sets how many commands may wait for the worker before new ones are dropped
func WithQueueSize(n int) Option {
	return func(o *options) { o.queueSize = n }
}

// WithClock replaces the wall clock used for timestamps
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Handle is the caller side of a running presence worker. All methods are
// safe for concurrent use and never wait for the worker.
type Handle struct {
	logger *zap.Logger

	mu              sync.Mutex
	commands        chan Command // nil after Shutdown
	lastDropWarning time.Time
	suppressedDrops int

	done chan struct{}
}

// Init starts a presence worker and returns its handle. The worker starts
// disabled; call Enable to connect.
func Init(logger *zap.Logger, connector domain.Connector, opts ...Option) (*Handle, error) {
	if logger == nil {
		return nil, fmt.Errorf("presence: logger: %w", ErrMissingDependency)
	}
	if connector == nil {
		return nil, fmt.Errorf("presence: connector: %w", ErrMissingDependency)
	}

	o := options{
		appName:       defaultAppName,
		listenBaseURL: defaultListenBaseURL,
		tickInterval:  defaultTickInterval,
		queueSize:     defaultQueueSize,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tickInterval <= 0 || o.queueSize <= 0 {
		return nil, fmt.Errorf("presence: invalid tick interval %s or queue size %d", o.tickInterval, o.queueSize)
	}

	h := &Handle{
		logger:   logger,
		commands: make(chan Command, o.queueSize),
		done:     make(chan struct{}),
	}

	w := newWorker(logger, connector, o)
	go func(commands <-chan Command) {
		defer close(h.done)
		w.run(commands, o.tickInterval)
	}(h.commands)

	logger.Info("Presence worker started")
	return h, nil
}

// Enable turns presence on
func (h *Handle) Enable() {
	h.send(EnableCommand{})
}

// Disable turns presence off and drops the Discord connection
func (h *Handle) Disable() {
	h.send(DisableCommand{})
}

// UpdateMetadata announces a new track. The position restarts at zero.
func (h *Handle) UpdateMetadata(meta domain.TrackMetadata) {
	h.send(MetadataCommand{Metadata: meta})
}

// UpdatePlayState announces play or pause
func (h *Handle) UpdatePlayState(status domain.PlaybackStatus) {
	h.send(PlayStateCommand{Status: status})
}

// UpdateTimeline reports the playback position in milliseconds
func (h *Handle) UpdateTimeline(currentTimeMs, totalTimeMs float64) {
	h.send(TimelineCommand{CurrentTimeMs: currentTimeMs, TotalTimeMs: totalTimeMs})
}

// UpdateConfig changes the display settings; a nil mode keeps the current one
func (h *Handle) UpdateConfig(showWhenPaused bool, mode *domain.DisplayMode) {
	h.send(ConfigCommand{ShowWhenPaused: showWhenPaused, DisplayMode: mode})
}

// Shutdown closes the command channel. The worker exits after finishing the
// command in progress; Done is closed once it has. Calling Shutdown again is a no-op.
func (h *Handle) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.commands == nil {
		return
	}
	close(h.commands)
	h.commands = nil
	h.logger.Info("Shutting down presence worker")
}

// Done is closed when the worker goroutine has exited
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// send enqueues without blocking. Commands that do not fit are dropped: the
// player re-emits its state on the next natural event.
func (h *Handle) send(cmd Command) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.commands == nil {
		h.logger.Warn("Presence worker is not running, dropping command",
			zap.String("command", fmt.Sprintf("%T", cmd)))
		return
	}

	select {
	case h.commands <- cmd:
	default:
		h.logDropWarning(cmd)
	}
}

// logDropWarning warns at most once every 5 seconds and reports how many drops
// were folded into the previous quiet period. Caller holds h.mu.
func (h *Handle) logDropWarning(cmd Command) {
	const warningInterval = 5 * time.Second
	now := time.Now()

	if now.Sub(h.lastDropWarning) < warningInterval {
		h.suppressedDrops++
		return
	}

	h.logger.Warn("Presence command queue full, dropping command",
		zap.String("command", fmt.Sprintf("%T", cmd)),
		zap.Int("suppressedDrops", h.suppressedDrops))
	h.lastDropWarning = now
	h.suppressedDrops = 0
}
