package presence

import (
	"context"
	"time"

	"github.com/genricoloni/synecord/internal/domain"
	"go.uber.org/zap"
)

const (
	// reconnectCooldownTicks bounds connect attempts to one per five idle ticks
	reconnectCooldownTicks uint8 = 5

	// ipcTimeout caps a single connect/set/clear exchange
	ipcTimeout = 5 * time.Second
)

// gateway owns the single open session and the reconnect cooldown.
type gateway struct {
	logger    *zap.Logger
	connector domain.Connector
	session   domain.Session
	cooldown  uint8
}

func newGateway(logger *zap.Logger, connector domain.Connector) *gateway {
	return &gateway{logger: logger, connector: connector}
}

func (g *gateway) connected() bool {
	return g.session != nil
}

// resetCooldown makes the next connect call dial immediately.
func (g *gateway) resetCooldown() {
	g.cooldown = 0
}

// connect dials unless the cooldown is still running. It reports whether a new
// session was opened.
func (g *gateway) connect() bool {
	if g.cooldown > 0 {
		g.cooldown--
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), ipcTimeout)
	defer cancel()

	session, err := g.connector.Connect(ctx)
	if err != nil {
		g.logger.Info("Failed to connect to Discord IPC, Discord may not be running",
			zap.Error(err),
			zap.Uint8("retryInTicks", reconnectCooldownTicks))
		g.cooldown = reconnectCooldownTicks
		return false
	}

	g.logger.Info("Discord IPC connected")
	g.session = session
	return true
}

func (g *gateway) setActivity(a *domain.Activity) error {
	ctx, cancel := context.WithTimeout(context.Background(), ipcTimeout)
	defer cancel()
	return g.session.SetActivity(ctx, a)
}

func (g *gateway) clearActivity() error {
	ctx, cancel := context.WithTimeout(context.Background(), ipcTimeout)
	defer cancel()
	return g.session.ClearActivity(ctx)
}

// close drops the session. Close errors are logged and otherwise ignored.
func (g *gateway) close() {
	if g.session == nil {
		return
	}
	if err := g.session.Close(); err != nil {
		g.logger.Debug("Failed to close Discord IPC session", zap.Error(err))
	}
	g.session = nil
}

// NopConnector never connects. It is used where no Discord IPC transport exists.
type NopConnector struct{}

// Connect always fails with domain.ErrUnsupported
func (NopConnector) Connect(context.Context) (domain.Session, error) {
	return nil, domain.ErrUnsupported
}
