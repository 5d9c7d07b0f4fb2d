package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_FileOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "events.log")
	log, closer, err := New(Config{Level: "info", Format: "json", Output: "file", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("event created", zap.String("event_id", "e-1"))
	require.NoError(t, log.Sync())
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "event created", entry["msg"])
	require.Equal(t, "e-1", entry["event_id"])
	require.Equal(t, "info", entry["level"])
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cfg  Config
	}{
		{name: "bad level", cfg: Config{Level: "loud"}},
		{name: "bad format", cfg: Config{Format: "xml"}},
		{name: "bad output", cfg: Config{Output: "syslog"}},
		{name: "file without path", cfg: Config{Output: "file"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := New(tc.cfg)
			require.Error(t, err)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	log, closer, err := New(Config{})
	require.NoError(t, err)
	require.NotNil(t, log)
	require.NoError(t, closer.Close())
}
