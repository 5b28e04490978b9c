// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/holoauth/pkg/errutil"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "bad JSON: %s", buf.String())
	return entry
}

func TestRedactingHandler_MasksTopLevelAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewRedactingHandler(slog.NewJSONHandler(&buf, nil), []string{"email", "Password"}))

	logger.Info("login", "email", "a@example.com", "password", "hunter2", "account_id", "01J")

	entry := decode(t, &buf)
	assert.Equal(t, Redacted, entry["email"])
	assert.Equal(t, Redacted, entry["password"])
	assert.Equal(t, "01J", entry["account_id"])
}

func TestRedactingHandler_MasksGroupsAndWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewRedactingHandler(slog.NewJSONHandler(&buf, nil), []string{"token"})).
		With("token", "abc").
		WithGroup("req")

	logger.Info("reset", slog.Group("user", "token", "def", "id", 7))

	entry := decode(t, &buf)
	assert.Equal(t, Redacted, entry["token"])
	req, ok := entry["req"].(map[string]any)
	require.True(t, ok)
	user, ok := req["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, Redacted, user["token"])
	assert.EqualValues(t, 7, user["id"])
}

func TestRedactingHandler_MasksOopsContext(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("holoauth", "test", "json", &buf, WithRedactKeys("email"))

	err := oops.Code("AUTH_REGISTER_FAILED").With("email", "a@example.com").With("operation", "create").
		Wrap(errors.New("boom"))
	errutil.LogError(logger, "register failed", err)

	entry := decode(t, &buf)
	errCtx, ok := entry["context"].(map[string]any)
	require.True(t, ok, "context missing: %s", buf.String())
	assert.Equal(t, Redacted, errCtx["email"])
	assert.Equal(t, "create", errCtx["operation"])
	assert.Equal(t, "AUTH_REGISTER_FAILED", entry["code"])
	assert.NotContains(t, buf.String(), "a@example.com")
}

func TestSetup_LevelOption(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("holoauth", "test", "json", &buf, WithLevel(ParseLevel("warn")))

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
