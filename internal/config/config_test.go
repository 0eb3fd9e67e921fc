package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gateward/gateward/internal/model"
	"github.com/gateward/gateward/internal/testutil"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	cfg.Normalize(testutil.NopLogger())

	assert.Equal(t, 3, cfg.Code.Length)
	assert.Equal(t, 3, cfg.Attempts.MaxAttempts)
	assert.Equal(t, 20*time.Second, cfg.Movement.ResponseTimeout())
	assert.Equal(t, 10*time.Minute, cfg.Timeout.Duration())
	assert.Equal(t, 24*time.Hour, cfg.Cooldown.Duration())

	steps := cfg.Movement.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, model.DirectionUp, steps[0].Direction)
	assert.Equal(t, 2*time.Second, steps[0].Hold)
	assert.Equal(t, model.DirectionLeft, steps[1].Direction)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateward.yml")
	content := `
code:
  length: 5
  characters: "ABC123"
  case-sensitive: true
movement:
  directions: ["down:3", "right:1"]
  tolerance: 10
  response-timeout: 30
attempts:
  max-attempts: 5
cooldown:
  duration: 3600
  track-by-ip: false
storage:
  type: redis
  redis:
    url: redis://example:6379
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path, testutil.NopLogger())
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Code.Length)
	assert.Equal(t, "ABC123", cfg.Code.Characters)
	assert.True(t, cfg.Code.CaseSensitive)
	assert.Equal(t, 30*time.Second, cfg.Movement.ResponseTimeout())
	assert.Equal(t, 5, cfg.Attempts.MaxAttempts)
	assert.Equal(t, time.Hour, cfg.Cooldown.Duration())
	assert.False(t, cfg.Cooldown.TrackByIP)
	assert.Equal(t, "redis", cfg.Storage.Type)
	assert.Equal(t, "redis://example:6379", cfg.Storage.Redis.URL)

	steps := cfg.Movement.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, model.DirectionDown, steps[0].Direction)
	assert.Equal(t, 3*time.Second, steps[0].Hold)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"), testutil.NopLogger())
	require.NoError(t, err)
	assert.Equal(t, Default().Code.Length, cfg.Code.Length)
}

func TestLoadMalformedYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateward.yml")
	require.NoError(t, os.WriteFile(path, []byte("code: [unbalanced"), 0o600))

	_, err := Load(path, testutil.NopLogger())
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GATEWARD_CODE_LENGTH", "6")
	t.Setenv("GATEWARD_COOLDOWN_TRACK_BY_USER", "false")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"), testutil.NopLogger())
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Code.Length)
	assert.False(t, cfg.Cooldown.TrackByUser)
}

func TestNormalizeFallsBackOnBadValues(t *testing.T) {
	cfg := Default()
	cfg.Code.Length = -1
	cfg.Code.Characters = ""
	cfg.Attempts.MaxAttempts = 0
	cfg.Storage.Type = "cassandra"
	cfg.Movement.Directions = []string{"up:2", "sideways:9", "left:nope"}

	cfg.Normalize(testutil.NopLogger())

	def := Default()
	assert.Equal(t, def.Code.Length, cfg.Code.Length)
	assert.Equal(t, def.Code.Characters, cfg.Code.Characters)
	assert.Equal(t, def.Attempts.MaxAttempts, cfg.Attempts.MaxAttempts)
	assert.Equal(t, "memory", cfg.Storage.Type)
	// Malformed tokens dropped, valid ones kept
	assert.Equal(t, []string{"up:2"}, cfg.Movement.Directions)
}

func TestNormalizeAllDirectionsInvalidUsesDefaultQueue(t *testing.T) {
	cfg := Default()
	cfg.Movement.Directions = []string{"backwards:2"}

	cfg.Normalize(testutil.NopLogger())

	assert.Equal(t, Default().Movement.Directions, cfg.Movement.Directions)
}
