package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfigFile(t, `
upstream:
  base_url: https://gw.example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":8089", cfg.Server.Addr)
	require.Equal(t, 15*time.Second, cfg.Upstream.Timeout)
	require.Equal(t, 1500, cfg.Report.TimeSpanMinutes)
	require.Equal(t, 5, cfg.Report.TopNModels)
	require.Equal(t, 24, cfg.Report.CompareLongHours)
	require.Equal(t, 2, cfg.Report.CompareShortHours)
	require.InDelta(t, 0.20, cfg.Anomaly.ErrRateP0, 1e-9)
	require.InDelta(t, 0.08, cfg.Anomaly.ErrRateP1, 1e-9)
	require.Equal(t, 5, cfg.Anomaly.SlowCountP1)
	require.EqualValues(t, 15000, cfg.Anomaly.SlowMs)
	require.Equal(t, "data/data.json", cfg.Snapshot.Path)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "缺少 base_url",
			content: "server:\n  addr: ':1'\n",
		},
		{
			name: "对比窗口长短颠倒",
			content: `
upstream:
  base_url: https://gw.example.com
report:
  compare_long_hours: 1
  compare_short_hours: 2
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestLoadClampsTopN(t *testing.T) {
	path := writeConfigFile(t, `
upstream:
  base_url: https://gw.example.com
report:
  top_n_models: 99
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 20, cfg.Report.TopNModels)
}
