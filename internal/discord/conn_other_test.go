//go:build !windows

package discord

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSocketPaths_Order(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	t.Setenv("TMPDIR", "")
	t.Setenv("TMP", "")
	t.Setenv("TEMP", "")

	paths := socketPaths()
	if paths[0] != "/run/user/1000/discord-ipc-0" {
		t.Errorf("first candidate: got %q", paths[0])
	}
	if paths[9] != "/run/user/1000/discord-ipc-9" {
		t.Errorf("tenth candidate: got %q", paths[9])
	}
	if last := paths[len(paths)-1]; !strings.HasPrefix(last, "/tmp/") {
		t.Errorf("last candidate should be under /tmp, got %q", last)
	}
}

func TestDialIPC(t *testing.T) {
	dir, err := os.MkdirTemp("", "dipc")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	t.Setenv("XDG_RUNTIME_DIR", dir)
	t.Setenv("TMPDIR", dir)
	t.Setenv("TMP", "")
	t.Setenv("TEMP", "")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// /tmp is always probed and may hold a real Discord socket.
	for _, p := range socketPaths() {
		if strings.HasPrefix(p, dir) {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			t.Skipf("a Discord socket exists on this machine: %s", p)
		}
	}

	if _, err := dialIPC(ctx); !errors.Is(err, ErrNoSocket) {
		t.Fatalf("expected ErrNoSocket with no listener, got %v", err)
	}

	ln, err := net.Listen("unix", filepath.Join(dir, "discord-ipc-3"))
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		if c, err := ln.Accept(); err == nil {
			c.Close()
		}
	}()

	conn, err := dialIPC(ctx)
	if err != nil {
		t.Fatalf("dialIPC failed: %v", err)
	}
	conn.Close()
}
