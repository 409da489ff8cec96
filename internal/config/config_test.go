package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "database:\n  host: db\n"))
	require.NoError(t, err)

	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, DefaultUserID, cfg.Server.DefaultUserID)
	assert.Equal(t, 5*time.Minute, cfg.Recognition.Cooldown)
	assert.InDelta(t, 0.6, cfg.Recognition.Threshold, 1e-9)
	assert.Equal(t, 3*time.Second, cfg.Recognition.PollInterval)
	assert.Equal(t, 512, cfg.Vision.EmbeddingDim)
	assert.Equal(t, "home", cfg.Defaults.HomeLabel)
	require.NotNil(t, cfg.Defaults.Longitude)
	assert.InDelta(t, -122.327, *cfg.Defaults.Longitude, 1e-9)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_YAMLDurations(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
recognition:
  cooldown: 2m
  threshold: 0.45
  poll_interval: 500ms
defaults:
  latitude: 47.628
  longitude: -122.327
`))
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.Recognition.Cooldown)
	assert.InDelta(t, 0.45, cfg.Recognition.Threshold, 1e-9)
	assert.Equal(t, 500*time.Millisecond, cfg.Recognition.PollInterval)
	require.NotNil(t, cfg.Defaults.Latitude)
	assert.InDelta(t, 47.628, *cfg.Defaults.Latitude, 1e-9)
}

func TestLoad_EnvOverrides(t *testing.T) {
	userID := uuid.New()
	t.Setenv("FACELINK_SERVER_PORT", "9090")
	t.Setenv("FACELINK_DEFAULT_USER_ID", userID.String())
	t.Setenv("FACELINK_RECOGNITION_COOLDOWN", "30s")
	t.Setenv("FACELINK_DB_PASSWORD", "secret")

	cfg, err := Load(writeConfig(t, "server:\n  port: 8000\n"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, userID, cfg.Server.DefaultUserID)
	assert.Equal(t, 30*time.Second, cfg.Recognition.Cooldown)
	assert.Equal(t, "secret", cfg.Database.Password)
}

func TestLoad_RejectsThresholdAboveOne(t *testing.T) {
	_, err := Load(writeConfig(t, "recognition:\n  threshold: 1.5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "threshold")
}

func TestLoad_TimeZone(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  time_zone: America/Los_Angeles\n"))
	require.NoError(t, err)
	loc, err := cfg.Server.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Los_Angeles", loc.String())

	_, err = Load(writeConfig(t, "server:\n  time_zone: Mars/Olympus\n"))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 5433, Name: "n", User: "u", Password: "p"}
	assert.Equal(t, "postgres://u:p@h:5433/n?sslmode=disable", d.DSN())
}
