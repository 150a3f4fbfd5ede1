package extension

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{SchedulerPageSize: 10})

	assert.Equal(t, 10, cfg.SchedulerPageSize)
	assert.Equal(t, "@every 1m", cfg.SchedulerSpec)
	assert.Equal(t, 5*time.Second, cfg.PluginTimeout)
	assert.Equal(t, "vault", cfg.RedisPrefix)
}

func TestMergeConfigurations(t *testing.T) {
	yaml := Config{SchedulerSpec: "@every 5m"}
	programmatic := Config{
		SchedulerSpec:    "@every 1h",
		DisableScheduler: true,
		RedisURL:         "redis://localhost:6379/0",
		PluginTimeout:    time.Second,
	}

	cfg := mergeConfigurations(yaml, programmatic)
	assert.Equal(t, "@every 5m", cfg.SchedulerSpec, "yaml wins")
	assert.True(t, cfg.DisableScheduler)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, time.Second, cfg.PluginTimeout)
	assert.Equal(t, 100, cfg.SchedulerPageSize)
}

func TestBuildWiresScheduler(t *testing.T) {
	e := New(WithSchedulerPageSize(7))
	e.config = mergeWithDefaults(e.config)
	e.build()

	assert.NotNil(t, e.Engine())
	assert.NotNil(t, e.Scheduler())
	assert.NoError(t, e.Health(t.Context()))

	e = New(WithDisableScheduler())
	e.config = mergeWithDefaults(e.config)
	e.build()
	assert.Nil(t, e.Scheduler())
}
