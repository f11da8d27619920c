package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyEnv(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://localhost/links")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("BLOOM_NAME", "shardA")
	t.Setenv("BLOOM_CAPACITY", "5000")
	t.Setenv("BLOOM_FP_RATE", "0.001")
	t.Setenv("FLUSH_INTERVAL", "30s")
	t.Setenv("FLUSH_THRESHOLD", "100")

	o := &Options{}
	applyEnv(o)

	assert.Equal(t, "postgres://localhost/links", o.DatabaseDSN)
	assert.Equal(t, "debug", o.LogLevel)
	assert.Equal(t, "shardA", o.BloomName)
	assert.Equal(t, uint(5000), o.BloomCapacity)
	assert.Equal(t, 0.001, o.BloomFPRate)
	assert.Equal(t, 30*time.Second, o.FlushInterval)
	assert.Equal(t, 100, o.FlushThreshold)
}

func TestApplyEnv_InvalidValuesKeepDefaults(t *testing.T) {
	t.Setenv("BLOOM_CAPACITY", "not-a-number")
	t.Setenv("FLUSH_INTERVAL", "soon")
	t.Setenv("FLUSH_THRESHOLD", "many")

	o := &Options{
		BloomCapacity:  100000,
		FlushInterval:  10 * time.Second,
		FlushThreshold: 25,
	}
	applyEnv(o)

	assert.Equal(t, uint(100000), o.BloomCapacity)
	assert.Equal(t, 10*time.Second, o.FlushInterval)
	assert.Equal(t, 25, o.FlushThreshold)
}

func TestApplyEnv_UnsetLeavesValues(t *testing.T) {
	o := &Options{DatabaseDSN: "keep", LogLevel: "warn"}
	applyEnv(o)

	assert.Equal(t, "keep", o.DatabaseDSN)
	assert.Equal(t, "warn", o.LogLevel)
}
