package presence

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/genricoloni/synecord/internal/domain"
)

const (
	// iconAssetKey is the application icon uploaded to the Discord app
	iconAssetKey = "logo-icon"

	defaultListenBaseURL = "https://music.163.com/"

	neteaseCoverHost   = "music.126.net"
	neteaseCoverParams = "?imageView&enlarge=1&type=jpeg&quality=90&thumbnail=150y150"
)

// snapshot is the worker's record of the active track. The derived fields are
// only recomputed when the metadata changes.
type snapshot struct {
	metadata      domain.TrackMetadata
	status        domain.PlaybackStatus
	currentTimeMs float64

	coverURL  string
	listenURL string
	fullTitle string
}

func newSnapshot(meta domain.TrackMetadata, listenBase string) *snapshot {
	s := &snapshot{status: domain.StatusPaused}
	s.setMetadata(meta, listenBase)
	return s
}

// setMetadata replaces the track and rewinds the position to zero.
// The playback status is kept.
func (s *snapshot) setMetadata(meta domain.TrackMetadata, listenBase string) {
	s.metadata = meta
	s.currentTimeMs = 0
	s.coverURL = coverURL(meta.CoverURL)
	s.listenURL = listenURL(listenBase, meta.ExternalID)
	s.fullTitle = meta.SongName + " - " + meta.AuthorName
}

// durationMs returns the track length and whether it is usable for timestamps.
func (s *snapshot) durationMs() (float64, bool) {
	if s.metadata.DurationMs == nil || *s.metadata.DurationMs <= 0 {
		return 0, false
	}
	return *s.metadata.DurationMs, true
}

// coverURL turns the player's artwork URL into something Discord can fetch.
// Non-HTTP sources (file://, data:) fall back to the bundled icon.
func coverURL(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "http") {
		return iconAssetKey
	}

	secure := strings.ReplaceAll(raw, "http://", "https://")
	base, _, _ := strings.Cut(secure, "?")

	if u, err := url.Parse(secure); err == nil {
		host := u.Hostname()
		if host == neteaseCoverHost || strings.HasSuffix(host, "."+neteaseCoverHost) {
			return base + neteaseCoverParams
		}
	}
	return base
}

func listenURL(base string, id *int64) string {
	if base == "" {
		base = defaultListenBaseURL
	}
	if id == nil {
		return base
	}
	return strings.TrimSuffix(base, "/") + "/song?id=" + strconv.FormatInt(*id, 10)
}
