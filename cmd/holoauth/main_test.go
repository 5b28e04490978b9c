// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "holoauth-cli")
	if err != nil {
		panic(err)
	}
	_ = os.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	_ = os.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// execute runs the CLI with args and returns stdout.
func execute(t *testing.T, deps Deps, args ...string) (string, error) {
	t.Helper()
	return executeContext(context.Background(), t, deps, args...)
}

func executeContext(ctx context.Context, t *testing.T, deps Deps, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(deps)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

// sqliteArgs points a command at a fresh SQLite file shared across runs.
func sqliteArgs(t *testing.T) []string {
	t.Helper()
	return []string{
		"--storage-driver", "sqlite",
		"--sqlite-path", filepath.Join(t.TempDir(), "holoauth.db"),
		"--log-level", "error",
	}
}

func line(s string) string {
	return strings.TrimSpace(s)
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	out, err := execute(t, Deps{}, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"migrate", "account", "login", "whoami", "logout", "reset", "session", "serve", "config"} {
		assert.Contains(t, out, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_VersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	cmd.Version = "test-version"
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "test-version")
}

func TestRootCommand_RejectsInvalidConfig(t *testing.T) {
	_, err := execute(t, Deps{}, "--durable", "memcached", "config", "show")
	require.Error(t, err)
}
