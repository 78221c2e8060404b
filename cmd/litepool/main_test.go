package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jirevwe/litepool"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "litepool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestServeCommand_RejectsZeroWorkers(t *testing.T) {
	cmd := newServeCommand()
	cmd.SetArgs([]string{"--workers", "0"})

	err := cmd.ExecuteContext(context.Background())
	require.ErrorIs(t, err, litepool.ErrInvalidConfig)
}

func TestServeCommand_FlagOverridesConfigFile(t *testing.T) {
	path := writeConfig(t, "workers: 8\naddr: 127.0.0.1:0\n")

	cmd := newServeCommand()
	cmd.SetArgs([]string{"--config", path, "--workers", "0"})

	err := cmd.ExecuteContext(context.Background())
	require.ErrorIs(t, err, litepool.ErrInvalidConfig)
	require.Contains(t, err.Error(), "got 0")
}

func TestServeCommand_ConfigFileValueKeptWithoutFlag(t *testing.T) {
	path := writeConfig(t, "workers: 0\n")

	cmd := newServeCommand()
	cmd.SetArgs([]string{"--config", path})

	err := cmd.ExecuteContext(context.Background())
	require.ErrorIs(t, err, litepool.ErrInvalidConfig)
}

func TestServeCommand_ConfigFileAddrKeptWithoutFlag(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	dir := t.TempDir()
	path := writeConfig(t, "addr: "+taken.Addr().String()+"\nstatic_dir: "+dir+"\n")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cmd := newServeCommand()
	cmd.SetArgs([]string{"--config", path, "--workers", "2"})

	err = cmd.ExecuteContext(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), taken.Addr().String())
}

func TestServeCommand_RejectsArgs(t *testing.T) {
	cmd := newServeCommand()
	cmd.SetArgs([]string{"extra"})

	require.Error(t, cmd.ExecuteContext(context.Background()))
}
