// Copyright (c) 2022, superwindstorm <fengwd.hc@gmail.com>
// All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestHandle(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(New(&buf)).With("component", "merkle")
	log.Info("root computed", "leaves", 4, "ok", true)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	m := lines[0]
	assert.Equal(t, "root computed", m["msg"])
	assert.Equal(t, "INFO", m["level"])
	assert.Equal(t, "merkle", m["component"])
	assert.Equal(t, float64(4), m["leaves"])
	assert.Equal(t, true, m["ok"])
	assert.Contains(t, m, "time")
}

func TestLevelAndErrorWriter(t *testing.T) {
	var out, errs bytes.Buffer
	log := slog.New(New(&out, WithLevel(slog.LevelWarn), WithErrorWriter(&errs)))

	log.Info("hidden")
	log.Warn("shown")
	log.Error("failed", "err", errors.New("boom"))

	lines := decodeLines(t, &out)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["msg"])

	lines = decodeLines(t, &errs)
	require.Len(t, lines, 1)
	assert.Equal(t, "failed", lines[0]["msg"])
	assert.Equal(t, "boom", lines[0]["err"])
}

func TestGroup(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(New(&buf)).WithGroup("sm4").With("lanes", 4)
	log.Info("encrypt", "blocks", 8)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, float64(4), lines[0]["sm4.lanes"])
	assert.Equal(t, float64(8), lines[0]["sm4.blocks"])
}

func TestNilWriterDiscards(t *testing.T) {
	h := New(nil)
	assert.False(t, h.Enabled(context.Background(), slog.LevelError))
	assert.NoError(t, slog.New(h).Handler().Handle(context.Background(), slog.Record{}))
}
