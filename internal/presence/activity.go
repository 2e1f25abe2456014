package presence

import "github.com/genricoloni/synecord/internal/domain"

const (
	listenButtonLabel = "🎧 Listen"
	pausedText        = "Paused"
)

// buildActivity maps the snapshot to the payload for the given display mode.
// Timestamps are attached by the caller.
func buildActivity(s *snapshot, mode domain.DisplayMode, appName string) *domain.Activity {
	a := &domain.Activity{
		Type:    domain.ActivityListening,
		Details: s.metadata.SongName,
		State:   s.metadata.AuthorName,
		Assets: &domain.Assets{
			LargeImage: s.coverURL,
			LargeText:  s.metadata.AlbumName,
			SmallImage: iconAssetKey,
			SmallText:  appName,
		},
		Buttons: []domain.Button{{Label: listenButtonLabel, URL: s.listenURL}},
	}

	switch mode {
	case domain.DisplayName:
		a.StatusDisplayType = domain.StatusDisplayDetails
	case domain.DisplayState:
		a.StatusDisplayType = domain.StatusDisplayName
	case domain.DisplayDetails:
		a.Details = s.fullTitle
		a.StatusDisplayType = domain.StatusDisplayDetails
	default:
		a.StatusDisplayType = domain.StatusDisplayDetails
	}
	return a
}
