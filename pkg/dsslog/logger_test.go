package dsslog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"DEBUG":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(99).String())
}

func TestDefaultLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewDefaultLogger(LevelWarn, &buf)

	l.Debug("ignored")
	l.Info("also ignored")
	require.Empty(t, buf.String())

	l.Warn("shape count %d", 3)
	assert.Contains(t, buf.String(), "[WARN]")
	assert.Contains(t, buf.String(), "shape count 3")
}

func TestDefaultLogger_WithFieldsAreIndependentPerInstance(t *testing.T) {
	var buf bytes.Buffer
	base := NewDefaultLogger(LevelDebug, &buf)

	withCell := base.WithField("cell", 7)
	base.Info("no fields")
	withCell.Info("has cell field")

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], "cell=7")
	assert.Contains(t, lines[1], "cell=7")
}

func TestDefaultLogger_WithFieldsMergesWithoutMutatingParent(t *testing.T) {
	var buf bytes.Buffer
	base := NewDefaultLogger(LevelDebug, &buf).WithField("store", "s0")
	child := base.WithField("layer", 2)

	child.Info("msg")
	assert.Contains(t, buf.String(), "store=s0")
	assert.Contains(t, buf.String(), "layer=2")

	buf.Reset()
	base.Info("parent unaffected")
	assert.Contains(t, buf.String(), "store=s0")
	assert.NotContains(t, buf.String(), "layer=2")
}

func TestNullLogger_DiscardsEverything(t *testing.T) {
	var l Logger = NullLogger{}
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")
	assert.IsType(t, NullLogger{}, l.WithField("k", "v"))
	assert.IsType(t, NullLogger{}, l.WithFields(map[string]interface{}{"k": "v"}))
}

func TestStdLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLogger(LevelError, &buf)

	l.Warn("not logged")
	require.Empty(t, buf.String())

	l.Error("logged %s", "now")
	assert.Contains(t, buf.String(), "[ERROR]")
	assert.Contains(t, buf.String(), "logged now")
}

func TestStdLogger_WithFieldsMerges(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLogger(LevelDebug, &buf).WithField("a", 1).WithFields(map[string]interface{}{"b": 2})
	l.Info("hi")
	_ = l
	assert.Contains(t, buf.String(), "hi")
}

func TestGlobalLogger_SetAndGet(t *testing.T) {
	orig := Global()
	defer SetGlobal(orig)

	var buf bytes.Buffer
	SetGlobal(NewDefaultLogger(LevelInfo, &buf))
	Global().Info("global log")
	assert.Contains(t, buf.String(), "global log")
}
