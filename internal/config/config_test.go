package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, "findme-orders", cfg.ServiceName)
	assert.Equal(t, SourceFile, cfg.OrderSource)
	assert.Equal(t, StoreMemory, cfg.NotifiedStore)
	assert.Equal(t, 60*time.Second, cfg.ScanInterval)
	assert.Equal(t, 3*time.Hour, cfg.AlertThreshold)
	assert.Equal(t, 5*time.Second, cfg.BannerDuration)
	assert.Equal(t, time.Second, cfg.CountdownTick)
	assert.Equal(t, "default", cfg.NotificationPermission)
	assert.Equal(t, 4, cfg.AlertLogWorkers)
	assert.Empty(t, cfg.KafkaBrokers())
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan_interval: 30s\nhttp_addr: \":9000\"\nservice_name: from-file\n"), 0o600))

	t.Setenv("SERVICE_NAME", "from-env")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ALERT_THRESHOLD", "90m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.ScanInterval)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "from-env", cfg.ServiceName)
	assert.Equal(t, 90*time.Minute, cfg.AlertThreshold)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cases := map[string]func(c *Config){
		"unknown source":        func(c *Config) { c.OrderSource = "csv" },
		"postgres without dsn":  func(c *Config) { c.OrderSource = SourcePostgres; c.PostgresDSN = "" },
		"redis store no addr":   func(c *Config) { c.NotifiedStore = StoreRedis },
		"unknown store":         func(c *Config) { c.NotifiedStore = "etcd" },
		"bad permission":        func(c *Config) { c.NotificationPermission = "maybe" },
		"zero interval":         func(c *Config) { c.ScanInterval = 0 },
		"negative threshold":    func(c *Config) { c.AlertThreshold = -time.Hour },
		"slow countdown":        func(c *Config) { c.CountdownTick = 2 * time.Second },
		"no alertlog workers":   func(c *Config) { c.AlertLogWorkers = 0 },
		"file source no path":   func(c *Config) { c.OrdersFile = "" },
		"zero banner duration":  func(c *Config) { c.BannerDuration = 0 },
		"zero permission limit": func(c *Config) { c.PermissionTimeout = 0 },
	}
	for name, mutate := range cases {
		c := base()
		mutate(c)
		assert.Error(t, c.Validate(), name)
	}

	c := base()
	c.NotifiedStore = StoreRedis
	c.RedisAddr = "localhost:6379"
	assert.NoError(t, c.Validate())
}
