package monitor

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/genricoloni/synecord/internal/domain"
	"go.uber.org/zap"
)

const (
	mpdReconnectDelay = 2 * time.Second
	mpdPingInterval   = 30 * time.Second
)

// mpdClient is the part of *mpd.Client the monitor queries
type mpdClient interface {
	Status() (mpd.Attrs, error)
	CurrentSong() (mpd.Attrs, error)
	Ping() error
	Close() error
}

// MPDMonitor follows an MPD server through the idle "player" subsystem.
// It reconnects on its own until stopped.
type MPDMonitor struct {
	logger   *zap.Logger
	network  string
	addr     string
	password string
	events   chan domain.PlayerEvent

	mu              sync.Mutex
	running         bool
	cancel          context.CancelFunc
	lastDropWarning time.Time
	wg              sync.WaitGroup

	dial func(network, addr, password string) (mpdClient, error)
}

// NewMPDMonitor accepts "host:port", "password@host:port", "unix:/path/to/socket"
// or an absolute socket path.
func NewMPDMonitor(logger *zap.Logger, address string) *MPDMonitor {
	network, addr, password := parseMPDAddress(address)
	return &MPDMonitor{
		logger:   logger,
		network:  network,
		addr:     addr,
		password: password,
		events:   make(chan domain.PlayerEvent, 10),
		dial: func(network, addr, password string) (mpdClient, error) {
			return mpd.DialAuthenticated(network, addr, password)
		},
	}
}

func parseMPDAddress(address string) (network, addr, password string) {
	if i := strings.LastIndexByte(address, '@'); i >= 0 && !strings.HasPrefix(address, "unix:") {
		password, address = address[:i], address[i+1:]
	}
	switch {
	case strings.HasPrefix(address, "unix:"):
		return "unix", strings.TrimPrefix(address, "unix:"), password
	case strings.HasPrefix(address, "/"):
		return "unix", address, password
	}
	return "tcp", address, password
}

// Start blocks until ctx is cancelled or Stop is called
func (m *MPDMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	monitorCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.wg.Add(1)
	m.mu.Unlock()
	defer m.wg.Done()

	m.logger.Info("MPD monitor started",
		zap.String("network", m.network),
		zap.String("address", m.addr))

	for {
		err := m.watch(monitorCtx)
		if monitorCtx.Err() != nil {
			m.logger.Info("MPD monitor stopped")
			return monitorCtx.Err()
		}
		m.logger.Warn("MPD connection lost, reconnecting",
			zap.Error(err),
			zap.Duration("delay", mpdReconnectDelay))

		select {
		case <-monitorCtx.Done():
			m.logger.Info("MPD monitor stopped")
			return monitorCtx.Err()
		case <-time.After(mpdReconnectDelay):
		}
	}
}

// watch runs one connection lifetime
func (m *MPDMonitor) watch(ctx context.Context) error {
	client, err := m.dial(m.network, m.addr, m.password)
	if err != nil {
		return fmt.Errorf("failed to connect to MPD: %w", err)
	}
	defer client.Close()

	w, err := mpd.NewWatcher(m.network, m.addr, m.password, "player")
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := m.poll(client); err != nil {
		return err
	}

	ping := time.NewTicker(mpdPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case subsystem, ok := <-w.Event:
			if !ok {
				return fmt.Errorf("watcher event channel closed")
			}
			m.logger.Debug("MPD subsystem changed", zap.String("subsystem", subsystem))
			if err := m.poll(client); err != nil {
				return err
			}

		case err, ok := <-w.Error:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			m.logger.Warn("MPD watcher error", zap.Error(err))

		case <-ping.C:
			// Keeps the command connection from hitting MPD's connection_timeout
			if err := client.Ping(); err != nil {
				return fmt.Errorf("ping failed: %w", err)
			}
		}
	}
}

// poll reads the player state and emits it
func (m *MPDMonitor) poll(client mpdClient) error {
	status, err := client.Status()
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}
	song, err := client.CurrentSong()
	if err != nil {
		return fmt.Errorf("failed to read current song: %w", err)
	}

	m.emit(mpdEvent(m.addr, status, song))
	return nil
}

// mpdEvent converts status and currentsong replies into a PlayerEvent.
// A stopped player reports no song, which yields an event without metadata.
func mpdEvent(player string, status, song mpd.Attrs) domain.PlayerEvent {
	event := domain.PlayerEvent{
		Player: player,
		Status: domain.StatusPaused,
	}
	if status["state"] == "play" {
		event.Status = domain.StatusPlaying
	}
	if elapsed, err := strconv.ParseFloat(status["elapsed"], 64); err == nil {
		event.PositionMs = elapsed * 1000
	}

	if len(song) == 0 || song["file"] == "" {
		return event
	}

	meta := domain.TrackMetadata{
		SongName:   song["Title"],
		AuthorName: song["Artist"],
		AlbumName:  song["Album"],
	}
	if meta.SongName == "" {
		meta.SongName = strings.TrimSuffix(path.Base(song["file"]), path.Ext(song["file"]))
	}
	if meta.AuthorName == "" {
		meta.AuthorName = song["AlbumArtist"]
	}

	// "duration" has ms precision, "Time" is the legacy whole-second field
	dur, err := strconv.ParseFloat(status["duration"], 64)
	if err != nil {
		dur, err = strconv.ParseFloat(song["duration"], 64)
	}
	if err != nil {
		dur, err = strconv.ParseFloat(song["Time"], 64)
	}
	if err == nil && dur > 0 {
		ms := dur * 1000
		meta.DurationMs = &ms
	}

	event.Metadata = meta
	event.HasMetadata = true
	return event
}

func (m *MPDMonitor) emit(event domain.PlayerEvent) {
	select {
	case m.events <- event:
		m.logger.Debug("MPD state emitted",
			zap.String("title", event.Metadata.SongName),
			zap.String("status", string(event.Status)),
			zap.Float64("positionMs", event.PositionMs))
	default:
		m.mu.Lock()
		defer m.mu.Unlock()
		if now := time.Now(); now.Sub(m.lastDropWarning) >= 5*time.Second {
			m.logger.Warn("Events channel full, dropping MPD event")
			m.lastDropWarning = now
		}
	}
}

// Stop cancels Start and closes the events channel once it has returned
func (m *MPDMonitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.running = false
	m.mu.Unlock()

	m.wg.Wait()
	close(m.events)
	return nil
}

// Events returns a read-only channel that emits PlayerEvent
func (m *MPDMonitor) Events() <-chan domain.PlayerEvent {
	return m.events
}
