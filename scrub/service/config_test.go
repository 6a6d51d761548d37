package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/CMSgov/scrub-app/scrub/testUtils"
)

func TestLoadConfigDefaults(t *testing.T) {
	defer testUtils.SetAndRestoreEnvKey("SCRUB_WORKERS", "")()
	defer testUtils.SetAndRestoreEnvKey("SCRUB_LOOKUP_TIMEOUT", "")()

	cfg, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, 0, cfg.Workers)
	assert.Equal(t, 2*time.Second, cfg.LookupTimeout)
	assert.Equal(t, 3, cfg.VolumeThreshold)
	assert.Equal(t, 5000, cfg.MaxBatchSize)
	assert.False(t, cfg.WatchCatalog)
}

func TestLoadConfigOverrides(t *testing.T) {
	defer testUtils.SetAndRestoreEnvKey("SCRUB_WORKERS", "8")()
	defer testUtils.SetAndRestoreEnvKey("SCRUB_LOOKUP_TIMEOUT", "250ms")()
	defer testUtils.SetAndRestoreEnvKey("SCRUB_VOLUME_THRESHOLD", "5")()

	cfg, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.LookupTimeout)
	assert.Equal(t, 5, cfg.VolumeThreshold)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		msg   string
	}{
		{"negativeWorkers", "SCRUB_WORKERS", "-1", "SCRUB_WORKERS must not be negative"},
		{"negativeTimeout", "SCRUB_LOOKUP_TIMEOUT", "-1s", "SCRUB_LOOKUP_TIMEOUT must not be negative"},
		{"watchWithoutPath", "SCRUB_WATCH_CATALOG", "true", "SCRUB_WATCH_CATALOG requires SCRUB_CATALOG_PATH"},
		{"badDuration", "SCRUB_LOOKUP_TIMEOUT", "soon", "failed to load service config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer testUtils.SetAndRestoreEnvKey(tt.key, tt.value)()

			cfg, err := LoadConfig()
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
