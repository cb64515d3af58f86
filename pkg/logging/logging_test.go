package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_ContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := Logger(&buf, true, slog.LevelInfo)

	ctx := AppendCtx(context.Background(), slog.String("app", "skyview"))
	ctx = AppendCtx(ctx, slog.Int("layer", 3))
	log.InfoContext(ctx, "hello", "k", "v")
	log.DebugContext(ctx, "dropped")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "v", rec["k"])
	assert.Equal(t, "skyview", rec["app"])
	assert.Equal(t, float64(3), rec["layer"])
}

func TestAppendCtx_DoesNotAlias(t *testing.T) {
	base := AppendCtx(context.Background(), slog.String("a", "1"))
	x := AppendCtx(base, slog.String("b", "2"))
	y := AppendCtx(base, slog.String("c", "3"))
	assert.Len(t, FromCtx(base), 1)
	assert.Equal(t, "b", FromCtx(x)[1].Key)
	assert.Equal(t, "c", FromCtx(y)[1].Key)
}

func TestLogger_TextGroup(t *testing.T) {
	var buf bytes.Buffer
	log := Logger(&buf, false, slog.LevelDebug).WithGroup("viewer")
	log.Debug("zoom", "scale", 2)
	assert.Contains(t, buf.String(), "viewer.scale=2")
}

func TestRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skyview.log")
	w := RotatingFile(path)
	log := Logger(w, false, slog.LevelInfo)
	log.Info("written")
	require.NoError(t, w.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "msg=written")
}

func TestNop(t *testing.T) {
	assert.False(t, Nop().Enabled(context.Background(), slog.LevelError))
}
