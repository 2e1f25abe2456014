// Package discord talks to the local Discord client over its IPC socket.
package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/genricoloni/synecord/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrClosed is returned once Discord has closed the session or Close was called
	ErrClosed = errors.New("discord: session closed")
	// ErrNoSocket is returned when no discord-ipc-N endpoint accepts a connection
	ErrNoSocket = errors.New("discord: no IPC endpoint found")
)

const (
	rpcVersion     = 1
	defaultTimeout = 5 * time.Second
)

// Connector dials the Discord client and performs the handshake
type Connector struct {
	logger *zap.Logger
	appID  string
	dial   func(ctx context.Context) (net.Conn, error)
}

// NewConnector creates a connector for the configured Discord application
func NewConnector(logger *zap.Logger, cfg domain.Config) *Connector {
	return &Connector{
		logger: logger,
		appID:  cfg.GetDiscordAppID(),
		dial:   dialIPC,
	}
}

// Connect opens a session. It fails with ErrNoSocket when Discord is not running.
func (c *Connector) Connect(ctx context.Context) (domain.Session, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}

	s := &Session{logger: c.logger, conn: conn, pid: os.Getpid()}
	if err := s.handshake(ctx, c.appID); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

// Session is an open, handshaken Discord IPC connection
type Session struct {
	logger *zap.Logger
	pid    int

	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

func (s *Session) handshake(ctx context.Context, appID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setDeadline(ctx)
	if err := writeFrame(s.conn, opHandshake, handshake{Version: rpcVersion, ClientID: appID}); err != nil {
		return err
	}

	resp, err := s.readResponse()
	if err != nil {
		return fmt.Errorf("handshake failed: %w", err)
	}
	if resp.Evt != "READY" {
		return fmt.Errorf("handshake failed: unexpected event %q", resp.Evt)
	}

	s.logger.Debug("Discord handshake complete", zap.String("appID", appID))
	return nil
}

// SetActivity replaces the presence shown for this process
func (s *Session) SetActivity(ctx context.Context, activity *domain.Activity) error {
	return s.call(ctx, "SET_ACTIVITY", activityArgs{PID: s.pid, Activity: activity})
}

// ClearActivity removes the presence shown for this process
func (s *Session) ClearActivity(ctx context.Context) error {
	return s.call(ctx, "SET_ACTIVITY", activityArgs{PID: s.pid, Activity: nil})
}

// Close closes the socket. Discord drops the presence when the socket goes away.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}

// call sends a command and waits for the reply carrying the same nonce.
func (s *Session) call(ctx context.Context, cmd string, args any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	nonce := uuid.NewString()
	s.setDeadline(ctx)
	if err := writeFrame(s.conn, opFrame, command{Cmd: cmd, Args: args, Nonce: nonce}); err != nil {
		return err
	}

	for {
		resp, err := s.readResponse()
		if err != nil {
			return err
		}
		if resp.Nonce != nonce {
			s.logger.Debug("Skipping unrelated Discord message",
				zap.String("cmd", resp.Cmd),
				zap.String("evt", resp.Evt))
			continue
		}
		if resp.Evt == "ERROR" {
			return fmt.Errorf("discord: %s failed (%d): %s", cmd, resp.Data.Code, resp.Data.Message)
		}
		return nil
	}
}

// readResponse reads frames until a command/event frame arrives, answering pings.
// Caller holds s.mu.
func (s *Session) readResponse() (*response, error) {
	for {
		op, body, err := readFrame(s.conn)
		if err != nil {
			return nil, err
		}

		switch op {
		case opFrame:
			var resp response
			if err := json.Unmarshal(body, &resp); err != nil {
				return nil, fmt.Errorf("failed to decode response: %w", err)
			}
			return &resp, nil

		case opPing:
			if err := writeFrame(s.conn, opPong, json.RawMessage(body)); err != nil {
				return nil, err
			}

		case opClose:
			var cp closePayload
			_ = json.Unmarshal(body, &cp)
			s.closed = true
			_ = s.conn.Close()
			return nil, fmt.Errorf("%w: code %d: %s", ErrClosed, cp.Code, cp.Message)

		default:
			s.logger.Debug("Ignoring Discord frame", zap.Uint32("opcode", uint32(op)))
		}
	}
}

func (s *Session) setDeadline(ctx context.Context) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultTimeout)
	}
	_ = s.conn.SetDeadline(deadline)
}
