package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/genricoloni/synecord/internal/domain"
	"github.com/genricoloni/synecord/internal/engine/mocks"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type fakeConfig struct {
	enabled, showWhenPaused, verifyCovers bool
	mode                                  domain.DisplayMode
}

func (c fakeConfig) GetDiscordAppID() string            { return "1" }
func (c fakeConfig) GetAppName() string                 { return "SPlayer" }
func (c fakeConfig) GetListenBaseURL() string           { return "https://music.163.com/" }
func (c fakeConfig) IsEnabled() bool                    { return c.enabled }
func (c fakeConfig) ShowWhenPaused() bool               { return c.showWhenPaused }
func (c fakeConfig) GetDisplayMode() domain.DisplayMode { return c.mode }
func (c fakeConfig) GetSource() string                  { return "mpris" }
func (c fakeConfig) GetMPDAddress() string              { return "localhost:6600" }
func (c fakeConfig) VerifyCovers() bool                 { return c.verifyCovers }

// chanMonitor emits whatever the test pushes into events
type chanMonitor struct {
	events chan domain.PlayerEvent
	once   sync.Once
}

func newChanMonitor() *chanMonitor {
	return &chanMonitor{events: make(chan domain.PlayerEvent, 10)}
}

func (m *chanMonitor) Start(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (m *chanMonitor) Stop(context.Context) error {
	m.once.Do(func() { close(m.events) })
	return nil
}

func (m *chanMonitor) Events() <-chan domain.PlayerEvent { return m.events }

func ptr[T any](v T) *T { return &v }

var testNow = time.UnixMilli(1_700_000_000_000)

func track(title string, durMs float64) domain.TrackMetadata {
	return domain.TrackMetadata{
		SongName:   title,
		AuthorName: "Artist",
		CoverURL:   "https://p1.music.126.net/x.jpg",
		DurationMs: ptr(durMs),
	}
}

func newTestEngine(t *testing.T, cfg fakeConfig) (*Engine, *mocks.MockPresence, *mocks.MockCoverVerifier, *chanMonitor) {
	t.Helper()
	ctrl := gomock.NewController(t)
	presence := mocks.NewMockPresence(ctrl)
	verifier := mocks.NewMockCoverVerifier(ctrl)
	mon := newChanMonitor()

	e := NewEngine(zap.NewNop(), cfg, mon, verifier, presence)
	e.debounce = 10 * time.Millisecond
	e.now = func() time.Time { return testNow }
	return e, presence, verifier, mon
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func TestEngine_Lifecycle(t *testing.T) {
	e, presence, _, mon := newTestEngine(t, fakeConfig{enabled: true, mode: domain.DisplayDetails})

	meta := track("Song", 200_000)
	timeline := make(chan struct{})

	gomock.InOrder(
		presence.EXPECT().UpdateConfig(false, gomock.Any()).Do(func(_ bool, mode *domain.DisplayMode) {
			if mode == nil || *mode != domain.DisplayDetails {
				t.Errorf("unexpected display mode %v", mode)
			}
		}),
		presence.EXPECT().Enable(),
		presence.EXPECT().UpdateMetadata(meta),
		presence.EXPECT().UpdatePlayState(domain.StatusPlaying),
		presence.EXPECT().UpdateTimeline(float64(1500), float64(200_000)).Do(func(float64, float64) { close(timeline) }),
		presence.EXPECT().Disable(),
		presence.EXPECT().Shutdown(),
		presence.EXPECT().Done().Return(closedChan()),
	)

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	mon.events <- domain.PlayerEvent{Metadata: meta, Status: domain.StatusPlaying, PositionMs: 1500, HasMetadata: true}

	select {
	case <-timeline:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not forwarded")
	}

	if err := e.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestEngine_StartDisabled(t *testing.T) {
	e, presence, _, _ := newTestEngine(t, fakeConfig{enabled: false})

	presence.EXPECT().UpdateConfig(false, gomock.Any())
	presence.EXPECT().Disable()
	presence.EXPECT().Shutdown()
	presence.EXPECT().Done().Return(closedChan())

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestEngine_StopTimesOut(t *testing.T) {
	e, presence, _, _ := newTestEngine(t, fakeConfig{enabled: true})

	presence.EXPECT().UpdateConfig(gomock.Any(), gomock.Any())
	presence.EXPECT().Enable()
	presence.EXPECT().Disable()
	presence.EXPECT().Shutdown()
	presence.EXPECT().Done().Return(make(<-chan struct{}))

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := e.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
}

func TestProcessEvent(t *testing.T) {
	song := track("Song", 200_000)
	other := track("Other", 100_000)

	tests := []struct {
		name   string
		cfg    fakeConfig
		events []domain.PlayerEvent
		setup  func(p *mocks.MockPresence, v *mocks.MockCoverVerifier)
	}{
		{
			name: "Position Before Any Track Is Ignored",
			events: []domain.PlayerEvent{
				{PositionMs: 1000},
				{Status: domain.StatusPlaying},
			},
			setup: func(p *mocks.MockPresence, v *mocks.MockCoverVerifier) {},
		},
		{
			name: "Empty Metadata Is Ignored",
			events: []domain.PlayerEvent{
				{HasMetadata: true, Status: domain.StatusPlaying},
			},
			setup: func(p *mocks.MockPresence, v *mocks.MockCoverVerifier) {},
		},
		{
			name: "Same Track Only Updates Timeline",
			events: []domain.PlayerEvent{
				{HasMetadata: true, Metadata: song, Status: domain.StatusPaused},
				{HasMetadata: true, Metadata: song, Status: domain.StatusPaused, PositionMs: 5000},
			},
			setup: func(p *mocks.MockPresence, v *mocks.MockCoverVerifier) {
				gomock.InOrder(
					p.EXPECT().UpdateMetadata(song),
					p.EXPECT().UpdatePlayState(domain.StatusPaused),
					p.EXPECT().UpdateTimeline(float64(0), float64(200_000)),
					p.EXPECT().UpdateTimeline(float64(5000), float64(200_000)),
				)
			},
		},
		{
			name: "Seek And Resume",
			events: []domain.PlayerEvent{
				{HasMetadata: true, Metadata: song, Status: domain.StatusPaused},
				{PositionMs: 60_000},
				{HasMetadata: true, Metadata: song, Status: domain.StatusPlaying, PositionMs: 60_000},
			},
			setup: func(p *mocks.MockPresence, v *mocks.MockCoverVerifier) {
				gomock.InOrder(
					p.EXPECT().UpdateMetadata(song),
					p.EXPECT().UpdatePlayState(domain.StatusPaused),
					p.EXPECT().UpdateTimeline(float64(0), float64(200_000)),
					p.EXPECT().UpdateTimeline(float64(60_000), float64(200_000)),
					p.EXPECT().UpdatePlayState(domain.StatusPlaying),
					p.EXPECT().UpdateTimeline(float64(60_000), float64(200_000)),
				)
			},
		},
		{
			name: "Track Change Resends State",
			events: []domain.PlayerEvent{
				{HasMetadata: true, Metadata: song, Status: domain.StatusPlaying},
				{HasMetadata: true, Metadata: other, Status: domain.StatusPlaying},
			},
			setup: func(p *mocks.MockPresence, v *mocks.MockCoverVerifier) {
				gomock.InOrder(
					p.EXPECT().UpdateMetadata(song),
					p.EXPECT().UpdatePlayState(domain.StatusPlaying),
					p.EXPECT().UpdateTimeline(float64(0), float64(200_000)),
					p.EXPECT().UpdateMetadata(other),
					p.EXPECT().UpdatePlayState(domain.StatusPlaying),
					p.EXPECT().UpdateTimeline(float64(0), float64(100_000)),
				)
			},
		},
		{
			name: "Stop Pauses Presence",
			events: []domain.PlayerEvent{
				{HasMetadata: true, Metadata: song, Status: domain.StatusPlaying},
				{HasMetadata: true, Status: domain.StatusPaused},
				{HasMetadata: true, Status: domain.StatusPaused},
			},
			setup: func(p *mocks.MockPresence, v *mocks.MockCoverVerifier) {
				gomock.InOrder(
					p.EXPECT().UpdateMetadata(song),
					p.EXPECT().UpdatePlayState(domain.StatusPlaying),
					p.EXPECT().UpdateTimeline(float64(0), float64(200_000)),
					p.EXPECT().UpdatePlayState(domain.StatusPaused),
				)
			},
		},
		{
			name: "Resume After Stop Keeps Track",
			events: []domain.PlayerEvent{
				{HasMetadata: true, Metadata: song, Status: domain.StatusPlaying},
				{HasMetadata: true, Status: domain.StatusPaused},
				{HasMetadata: true, Metadata: song, Status: domain.StatusPlaying, PositionMs: 3000},
			},
			setup: func(p *mocks.MockPresence, v *mocks.MockCoverVerifier) {
				gomock.InOrder(
					p.EXPECT().UpdateMetadata(song),
					p.EXPECT().UpdatePlayState(domain.StatusPlaying),
					p.EXPECT().UpdateTimeline(float64(0), float64(200_000)),
					p.EXPECT().UpdatePlayState(domain.StatusPaused),
					p.EXPECT().UpdatePlayState(domain.StatusPlaying),
					p.EXPECT().UpdateTimeline(float64(3000), float64(200_000)),
				)
			},
		},
		{
			name: "Other Player Pausing Is Ignored",
			events: []domain.PlayerEvent{
				{Player: "spotify", HasMetadata: true, Metadata: song, Status: domain.StatusPlaying},
				{Player: "firefox", HasMetadata: true, Metadata: other, Status: domain.StatusPaused},
				{Player: "firefox", Status: domain.StatusPaused, PositionMs: 500},
				{Player: "firefox", HasMetadata: true, Status: domain.StatusPaused},
			},
			setup: func(p *mocks.MockPresence, v *mocks.MockCoverVerifier) {
				gomock.InOrder(
					p.EXPECT().UpdateMetadata(song),
					p.EXPECT().UpdatePlayState(domain.StatusPlaying),
					p.EXPECT().UpdateTimeline(float64(0), float64(200_000)),
				)
			},
		},
		{
			name: "Other Player Playing Takes Over",
			events: []domain.PlayerEvent{
				{Player: "spotify", HasMetadata: true, Metadata: song, Status: domain.StatusPlaying},
				{Player: "firefox", HasMetadata: true, Metadata: other, Status: domain.StatusPlaying},
				{Player: "spotify", HasMetadata: true, Metadata: song, Status: domain.StatusPaused},
			},
			setup: func(p *mocks.MockPresence, v *mocks.MockCoverVerifier) {
				gomock.InOrder(
					p.EXPECT().UpdateMetadata(song),
					p.EXPECT().UpdatePlayState(domain.StatusPlaying),
					p.EXPECT().UpdateTimeline(float64(0), float64(200_000)),
					p.EXPECT().UpdateMetadata(other),
					p.EXPECT().UpdatePlayState(domain.StatusPlaying),
					p.EXPECT().UpdateTimeline(float64(0), float64(100_000)),
				)
			},
		},
		{
			name: "Verified Cover Is Kept",
			cfg:  fakeConfig{verifyCovers: true},
			events: []domain.PlayerEvent{
				{HasMetadata: true, Metadata: song},
			},
			setup: func(p *mocks.MockPresence, v *mocks.MockCoverVerifier) {
				v.EXPECT().Verify(gomock.Any(), song.CoverURL).Return(nil)
				p.EXPECT().UpdateMetadata(song)
				p.EXPECT().UpdateTimeline(float64(0), float64(200_000))
			},
		},
		{
			name: "Broken Cover Falls Back To Icon",
			cfg:  fakeConfig{verifyCovers: true},
			events: []domain.PlayerEvent{
				{HasMetadata: true, Metadata: song},
				{HasMetadata: true, Metadata: song, PositionMs: 10},
			},
			setup: func(p *mocks.MockPresence, v *mocks.MockCoverVerifier) {
				stripped := song
				stripped.CoverURL = ""
				v.EXPECT().Verify(gomock.Any(), song.CoverURL).Return(errors.New("unexpected status code: 404"))
				p.EXPECT().UpdateMetadata(stripped)
				p.EXPECT().UpdateTimeline(float64(0), float64(200_000))
				p.EXPECT().UpdateTimeline(float64(10), float64(200_000))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, presence, verifier, _ := newTestEngine(t, tt.cfg)
			tt.setup(presence, verifier)

			for _, ev := range tt.events {
				e.processEvent(context.Background(), pendingEvent{event: ev, receivedAt: testNow})
			}
		})
	}
}

func TestProcessEvent_CompensatesDebounceDelay(t *testing.T) {
	e, presence, _, _ := newTestEngine(t, fakeConfig{})
	song := track("Song", 200_000)

	gomock.InOrder(
		presence.EXPECT().UpdateMetadata(song),
		presence.EXPECT().UpdatePlayState(domain.StatusPlaying),
		presence.EXPECT().UpdateTimeline(float64(1250), float64(200_000)),
	)

	e.processEvent(context.Background(), pendingEvent{
		event:      domain.PlayerEvent{HasMetadata: true, Metadata: song, Status: domain.StatusPlaying, PositionMs: 1000},
		receivedAt: testNow.Add(-250 * time.Millisecond),
	})
}
