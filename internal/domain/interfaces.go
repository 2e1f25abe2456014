package domain

import "context"

// Monitor defines the interface for monitoring media playback events
// Implementations should handle D-Bus/MPRIS or MPD communication
type Monitor interface {
	// Start begins monitoring for media events
	// It should block until context is cancelled or an error occurs
	Start(ctx context.Context) error

	// Stop gracefully stops the monitor
	Stop(ctx context.Context) error

	// Events returns a read-only channel that emits PlayerEvent
	// when media playback state changes
	Events() <-chan PlayerEvent
}

// Connector opens sessions against the presence endpoint (the Discord client)
//
//go:generate mockgen -destination=../presence/mocks/gateway_mock.go -package=mocks github.com/genricoloni/synecord/internal/domain Connector,Session
type Connector interface {
	// Connect dials the endpoint and completes the handshake
	Connect(ctx context.Context) (Session, error)
}

// Session is one open connection to the presence endpoint.
// All calls may fail; a failure means the session should be discarded.
type Session interface {
	// SetActivity replaces the displayed activity
	SetActivity(ctx context.Context, activity *Activity) error

	// ClearActivity removes the displayed activity
	ClearActivity(ctx context.Context) error

	// Close releases the underlying connection
	Close() error
}

// CoverVerifier checks that a cover URL points at a reachable image
type CoverVerifier interface {
	Verify(ctx context.Context, url string) error
}

// Config defines the interface for application configuration
type Config interface {
	// GetDiscordAppID returns the Discord application id used for the handshake
	GetDiscordAppID() string

	// GetAppName is the hover text of the small icon
	GetAppName() string

	// GetListenBaseURL is the base of the "Listen" button link
	GetListenBaseURL() string

	// IsEnabled reports whether presence starts enabled
	IsEnabled() bool

	// ShowWhenPaused reports whether a paused track stays visible
	ShowWhenPaused() bool

	// GetDisplayMode returns the member-list display mode
	GetDisplayMode() DisplayMode

	// GetSource returns the player source ("mpris" or "mpd")
	GetSource() string

	// GetMPDAddress returns "unix:/path" or "host:port"
	GetMPDAddress() string

	// VerifyCovers reports whether cover URLs are probed before use
	VerifyCovers() bool
}

// Presence is the command surface of the presence worker (presence.Handle).
// Calls never block; Done is closed once the worker has exited after Shutdown.
//
//go:generate mockgen -destination=../engine/mocks/presence_mock.go -package=mocks github.com/genricoloni/synecord/internal/domain Presence,CoverVerifier
type Presence interface {
	Enable()
	Disable()
	UpdateMetadata(meta TrackMetadata)
	UpdatePlayState(status PlaybackStatus)
	UpdateTimeline(currentTimeMs, totalTimeMs float64)
	UpdateConfig(showWhenPaused bool, mode *DisplayMode)
	Shutdown()
	Done() <-chan struct{}
}
