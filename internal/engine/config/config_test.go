package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arcentrix/runstream/internal/engine/service"
	"github.com/arcentrix/runstream/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConf(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigFileAppliesDefaults(t *testing.T) {
	path := writeConf(t, `
[http]
port = 18080

[storage]
bucket = "runs"
`)
	c, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, 18080, c.Http.Port)
	assert.Equal(t, "runs", c.Storage.Bucket)
	assert.Equal(t, time.Hour, c.Storage.PresignExpiry)
	assert.Equal(t, []string{"python3", "-u"}, c.Runner.Command)
	assert.Equal(t, 30*time.Second, c.Runner.NetworkTimeout)
	assert.Equal(t, service.LockMemory, c.Runner.Lock)
	assert.Equal(t, database.DriverSQLite, c.Database.Driver)
	assert.Equal(t, 2, c.Worker.Workers)
	assert.Equal(t, "RUN_LOGS", c.Kafka.Topic)
	assert.Equal(t, "/metrics", c.Metrics.Path)
	assert.Equal(t, "stdout", c.Log.Output)
}

func TestLoadConfigFileDurationsAndLists(t *testing.T) {
	path := writeConf(t, `
[runner]
command = ["sh"]
noVirtualDisplay = true
networkTimeout = "5s"
lock = "none"

[workspace]
root = "/tmp/rs"
retention = "2h"
`)
	c, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"sh"}, c.Runner.Command)
	assert.Nil(t, c.Runner.VirtualDisplay)
	assert.Equal(t, 5*time.Second, c.Runner.NetworkTimeout)
	assert.Equal(t, service.LockNone, c.Runner.Lock)
	assert.Equal(t, "/tmp/rs", c.Workspace.Root)
	assert.Equal(t, 2*time.Hour, c.Workspace.Retention)
}

func TestLoadConfigFileEnvOverride(t *testing.T) {
	t.Setenv("RUNSTREAM_HTTP_PORT", "19090")
	path := writeConf(t, `
[http]
port = 18080
`)
	c, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, 19090, c.Http.Port)
}

func TestLoadConfigFileRejectsBadKafka(t *testing.T) {
	path := writeConf(t, `
[kafka]
enabled = true
`)
	_, err := LoadConfigFile(path)
	assert.Error(t, err)
}

func TestLoadConfigFileMissing(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestSampleConfigLoads(t *testing.T) {
	c, err := LoadConfigFile(filepath.Join("..", "..", "..", "conf.d", "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, "runstream", c.Storage.Bucket)
	assert.True(t, c.Database.AutoMigrate)
}
