//go:build !windows

package discord

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// Sandboxed Discord builds put the socket in a subdirectory of the runtime dir.
var sandboxSubdirs = []string{"", "app/com.discordapp.Discord", "snap.discord", ".flatpak/dev.vencord.Vesktop/xdg-run"}

// socketDirs lists candidate directories in the order Discord itself checks them.
func socketDirs() []string {
	var dirs []string
	for _, env := range []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"} {
		if dir := os.Getenv(env); dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return append(dirs, "/tmp")
}

// socketPaths expands every directory into discord-ipc-0..9
func socketPaths() []string {
	var paths []string
	for _, dir := range socketDirs() {
		for _, sub := range sandboxSubdirs {
			for i := range 10 {
				paths = append(paths, filepath.Join(dir, sub, fmt.Sprintf("discord-ipc-%d", i)))
			}
		}
	}
	return paths
}

func dialIPC(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	for _, p := range socketPaths() {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		conn, err := d.DialContext(ctx, "unix", p)
		if err == nil {
			return conn, nil
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
	}
	return nil, ErrNoSocket
}
