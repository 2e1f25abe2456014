package domain

import "errors"

// ErrUnsupported is returned by components that have no implementation on the
// current platform or configuration.
var ErrUnsupported = errors.New("not supported on this platform")

// PlaybackStatus represents the current state of the media player
type PlaybackStatus string

const (
	// StatusPlaying indicates the media is currently playing
	StatusPlaying PlaybackStatus = "Playing"
	// StatusPaused indicates the media is paused
	StatusPaused PlaybackStatus = "Paused"
)

// ParsePlaybackStatus maps a player status string to a PlaybackStatus.
// Anything other than "Playing" counts as paused, including "Stopped".
func ParsePlaybackStatus(s string) PlaybackStatus {
	if s == string(StatusPlaying) {
		return StatusPlaying
	}
	return StatusPaused
}

// DisplayMode controls what Discord shows after "Listening to" in the user list
type DisplayMode int

const (
	// DisplayName shows the song name
	DisplayName DisplayMode = iota
	// DisplayState shows the application name
	DisplayState
	// DisplayDetails shows "song - artist"
	DisplayDetails
)

// ParseDisplayMode accepts "name", "state" or "details".
func ParseDisplayMode(s string) (DisplayMode, error) {
	switch s {
	case "name":
		return DisplayName, nil
	case "state":
		return DisplayState, nil
	case "details":
		return DisplayDetails, nil
	}
	return DisplayName, errors.New("unknown display mode: " + s)
}

func (m DisplayMode) String() string {
	switch m {
	case DisplayName:
		return "name"
	case DisplayState:
		return "state"
	case DisplayDetails:
		return "details"
	}
	return "unknown"
}

// TrackMetadata describes the track currently loaded in the player
type TrackMetadata struct {
	SongName   string
	AuthorName string
	AlbumName  string
	// CoverURL is the remote artwork URL; empty when the player has none
	CoverURL string
	// DurationMs is nil when the player does not report a length
	DurationMs *float64
	// ExternalID is the catalogue id used to build the "Listen" link
	ExternalID *int64
}

// SameTrack reports whether two metadata values describe the same track.
func (m TrackMetadata) SameTrack(o TrackMetadata) bool {
	if m.SongName != o.SongName || m.AuthorName != o.AuthorName ||
		m.AlbumName != o.AlbumName || m.CoverURL != o.CoverURL {
		return false
	}
	if (m.DurationMs == nil) != (o.DurationMs == nil) {
		return false
	}
	if m.DurationMs != nil && *m.DurationMs != *o.DurationMs {
		return false
	}
	if (m.ExternalID == nil) != (o.ExternalID == nil) {
		return false
	}
	return m.ExternalID == nil || *m.ExternalID == *o.ExternalID
}

// PlayerEvent is emitted by a Monitor whenever the player state changes
type PlayerEvent struct {
	// Player is the source identifier (bus name, MPD address)
	Player   string
	Metadata TrackMetadata
	Status   PlaybackStatus
	// PositionMs is the playback position at the time of the event
	PositionMs float64
	// HasMetadata is false for position-only events such as seeks
	HasMetadata bool
}

// ActivityType is Discord's activity category
type ActivityType int

// ActivityListening renders as "Listening to ..."
const ActivityListening ActivityType = 2

// StatusDisplayType selects which activity field Discord shows in the member list
type StatusDisplayType int

const (
	StatusDisplayName    StatusDisplayType = 0
	StatusDisplayState   StatusDisplayType = 1
	StatusDisplayDetails StatusDisplayType = 2
)

// Timestamps are unix seconds
type Timestamps struct {
	Start int64 `json:"start,omitempty"`
	End   int64 `json:"end,omitempty"`
}

// Assets holds image keys/URLs and their hover texts
type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
	SmallText  string `json:"small_text,omitempty"`
}

// Button is a clickable link below the activity
type Button struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Activity is the presence payload sent to Discord
type Activity struct {
	Type              ActivityType      `json:"type"`
	StatusDisplayType StatusDisplayType `json:"status_display_type"`
	Details           string            `json:"details,omitempty"`
	State             string            `json:"state,omitempty"`
	Timestamps        *Timestamps       `json:"timestamps,omitempty"`
	Assets            *Assets           `json:"assets,omitempty"`
	Buttons           []Button          `json:"buttons,omitempty"`
}
