package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReloadWhileReadingConfig(t *testing.T) {
	t.Setenv("MANBO_CHART_DAYS", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	a, err := newApp(globalFlags{configPath: path, backendURL: "http://127.0.0.1:1"}, io.Discard, io.Discard)
	require.NoError(t, err)
	require.NotNil(t, a.manager)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.manager.Watch(ctx, a.reload))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "chart_days: 90")
	updated := strings.Replace(string(data), "chart_days: 90", "chart_days: 120", 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	// Reads race the watcher goroutine until the new value lands.
	assert.Eventually(t, func() bool {
		cfg := a.config()
		_ = selectionsFromConfig(cfg)
		return cfg.ChartDays == 120
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, "http://127.0.0.1:1", a.config().BackendURL, "flag override survives reload")
}
