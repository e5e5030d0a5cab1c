package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDepthEngineConfig_AppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `{
		"symbol": "BTCUSDT",
		"depthStreamUrl": "wss://stream.binance.com:9443/ws",
		"snapshotUrl": "https://api.binance.com/api/v3/depth"
	}`)

	cfg, err := LoadDepthEngineConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "binance", cfg.Exchange)
	assert.Equal(t, 3, cfg.Connections)
	assert.Equal(t, "5s", cfg.WatchdogTimeout)

	d, err := cfg.WatchdogTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)
}

func TestLoadDepthEngineConfig_HonorsExplicitValues(t *testing.T) {
	path := writeTempConfig(t, `{
		"exchange": "binance",
		"symbol": "ETHUSDT",
		"depthStreamUrl": "wss://stream.binance.com:9443/ws",
		"snapshotUrl": "https://api.binance.com/api/v3/depth",
		"connections": 5,
		"watchdogTimeout": "10s"
	}`)

	cfg, err := LoadDepthEngineConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Connections)
	assert.Equal(t, "10s", cfg.WatchdogTimeout)
}

func TestLoadDepthEngineConfig_EmptyPath(t *testing.T) {
	_, err := LoadDepthEngineConfig("")
	assert.Error(t, err)
}

func TestLoadDepthEngineConfig_MissingFile(t *testing.T) {
	_, err := LoadDepthEngineConfig(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.Error(t, err)
}

func TestLoadDepthEngineConfig_MalformedJSON(t *testing.T) {
	path := writeTempConfig(t, `not json`)
	_, err := LoadDepthEngineConfig(path)
	assert.Error(t, err)
}

func TestLoadDepthEngineConfig_InvalidWatchdogTimeout(t *testing.T) {
	path := writeTempConfig(t, `{
		"symbol": "BTCUSDT",
		"depthStreamUrl": "wss://stream.binance.com:9443/ws",
		"snapshotUrl": "https://api.binance.com/api/v3/depth",
		"watchdogTimeout": "not-a-duration"
	}`)

	_, err := LoadDepthEngineConfig(path)
	assert.Error(t, err)
}

func TestDepthEngineConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     DepthEngineConfig
		wantErr bool
	}{
		{
			name: "valid",
			cfg: DepthEngineConfig{
				Symbol:          "BTCUSDT",
				DepthStreamURL:  "wss://stream.binance.com:9443/ws",
				SnapshotURL:     "https://api.binance.com/api/v3/depth",
				Connections:     3,
				WatchdogTimeout: "5s",
			},
			wantErr: false,
		},
		{
			name:    "missing symbol",
			cfg:     DepthEngineConfig{DepthStreamURL: "wss://x", SnapshotURL: "https://x", Connections: 1, WatchdogTimeout: "5s"},
			wantErr: true,
		},
		{
			name:    "missing depth stream url",
			cfg:     DepthEngineConfig{Symbol: "BTCUSDT", SnapshotURL: "https://x", Connections: 1, WatchdogTimeout: "5s"},
			wantErr: true,
		},
		{
			name:    "missing snapshot url",
			cfg:     DepthEngineConfig{Symbol: "BTCUSDT", DepthStreamURL: "wss://x", Connections: 1, WatchdogTimeout: "5s"},
			wantErr: true,
		},
		{
			name:    "non-positive connections",
			cfg:     DepthEngineConfig{Symbol: "BTCUSDT", DepthStreamURL: "wss://x", SnapshotURL: "https://x", Connections: 0, WatchdogTimeout: "5s"},
			wantErr: true,
		},
		{
			name:    "bad watchdog timeout",
			cfg:     DepthEngineConfig{Symbol: "BTCUSDT", DepthStreamURL: "wss://x", SnapshotURL: "https://x", Connections: 1, WatchdogTimeout: "nope"},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
