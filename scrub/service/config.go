package service

import (
	"time"

	"github.com/pkg/errors"

	"github.com/CMSgov/scrub-app/conf"
	"github.com/CMSgov/scrub-app/log"
	"github.com/CMSgov/scrub-app/scrub/validators"
)

type Config struct {
	// Workers bounds the batch worker pool. Zero uses every available core.
	Workers         int           `conf:"SCRUB_WORKERS" conf_default:"0"`
	LookupTimeout   time.Duration `conf:"SCRUB_LOOKUP_TIMEOUT" conf_default:"2s"`
	VolumeThreshold int           `conf:"SCRUB_VOLUME_THRESHOLD" conf_default:"3"`
	MaxBatchSize    int           `conf:"SCRUB_MAX_BATCH_SIZE" conf_default:"5000"`

	CatalogPath  string `conf:"SCRUB_CATALOG_PATH"`
	WatchCatalog bool   `conf:"SCRUB_WATCH_CATALOG" conf_default:"false"`
}

func LoadConfig() (cfg *Config, err error) {
	cfg = &Config{}
	if err := conf.Checkout(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to load service config")
	}

	if cfg.Workers < 0 {
		return nil, errors.Errorf("invalid config, SCRUB_WORKERS must not be negative, got %d", cfg.Workers)
	}
	if cfg.LookupTimeout < 0 {
		return nil, errors.Errorf("invalid config, SCRUB_LOOKUP_TIMEOUT must not be negative, got %s", cfg.LookupTimeout)
	}
	if cfg.VolumeThreshold <= 0 {
		cfg.VolumeThreshold = validators.DefaultVolumeThreshold
	}
	if cfg.WatchCatalog && cfg.CatalogPath == "" {
		return nil, errors.New("invalid config, SCRUB_WATCH_CATALOG requires SCRUB_CATALOG_PATH")
	}

	log.API.Infof("Successfully loaded service configuration. Workers: %d, lookup timeout: %s", cfg.Workers, cfg.LookupTimeout)

	return cfg, nil
}
