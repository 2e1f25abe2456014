package presence

import "github.com/genricoloni/synecord/internal/domain"

// Command is a message for the presence worker. The set of commands is closed.
type Command interface {
	command()
}

// EnableCommand turns presence on and forces an immediate connect attempt
type EnableCommand struct{}

// DisableCommand turns presence off and closes the connection
type DisableCommand struct{}

// ConfigCommand updates display settings; a nil DisplayMode keeps the current one
type ConfigCommand struct {
	ShowWhenPaused bool
	DisplayMode    *domain.DisplayMode
}

// MetadataCommand announces a new track
type MetadataCommand struct {
	Metadata domain.TrackMetadata
}

// PlayStateCommand announces a play/pause transition
type PlayStateCommand struct {
	Status domain.PlaybackStatus
}

// TimelineCommand reports the playback position. TotalTimeMs is informational;
// the track length always comes from the metadata.
type TimelineCommand struct {
	CurrentTimeMs float64
	TotalTimeMs   float64
}

func (EnableCommand) command()    {}
func (DisableCommand) command()   {}
func (ConfigCommand) command()    {}
func (MetadataCommand) command()  {}
func (PlayStateCommand) command() {}
func (TimelineCommand) command()  {}
