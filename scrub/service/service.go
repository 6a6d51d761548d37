package service

import (
	"context"

	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CMSgov/scrub-app/log"
	"github.com/CMSgov/scrub-app/scrub/batch"
	"github.com/CMSgov/scrub-app/scrub/catalog"
	"github.com/CMSgov/scrub-app/scrub/constants"
	"github.com/CMSgov/scrub-app/scrub/engine"
	scruberrors "github.com/CMSgov/scrub-app/scrub/errors"
	"github.com/CMSgov/scrub-app/scrub/models"
	"github.com/CMSgov/scrub-app/scrub/validators"
)

// ErrAsyncUnavailable is returned by SubmitBatch when no queue or database
// is configured.
var ErrAsyncUnavailable = errors.New("asynchronous batches require a database and job queue")

// Enqueuer hands an accepted batch off to the worker.
type Enqueuer interface {
	AddValidateBatchJob(ctx context.Context, args models.ValidateBatchArgs) error
}

// Ensure service satisfies the interface
var _ Service = &service{}

// Service exposes claim validation and rule administration.
type Service interface {
	ValidateClaim(ctx context.Context, claim *models.Claim, categories []models.Category) (models.ValidationResult, error)

	ValidateBatch(ctx context.Context, claims []models.Claim, categories []models.Category) (*models.BatchResult, error)

	// SubmitBatch records a pending batch and queues it for the worker.
	SubmitBatch(ctx context.Context, claims []models.Claim, categories []models.Category) (*models.Batch, error)

	GetBatch(ctx context.Context, batchID string) (*models.Batch, error)

	// ListRules returns every catalog rule, enabled or not, optionally
	// restricted to the given categories.
	ListRules(ctx context.Context, categories ...models.Category) []models.Rule

	SetRuleEnabled(ctx context.Context, ruleID string, enabled bool) (models.Rule, error)

	// SyncRuleSettings applies the persisted rule toggles to the catalog.
	SyncRuleSettings(ctx context.Context) error
}

type service struct {
	cfg          *Config
	catalog      *catalog.Catalog
	engine       *engine.Engine
	orchestrator *batch.Orchestrator
	repository   models.Repository
	enqueuer     Enqueuer
	logger       logrus.FieldLogger
}

// Options carries the optional collaborators of a Service. A nil Repository
// disables duplicate detection, persisted rule toggles and async batches. A
// nil Eligibility service reports every member as of unknown eligibility.
type Options struct {
	Repository  models.Repository
	Eligibility validators.EligibilityService
	Enqueuer    Enqueuer
}

func NewService(cfg *Config, cat *catalog.Catalog, opts Options) Service {
	engineCfg := engine.Config{
		VolumeThreshold: cfg.VolumeThreshold,
		LookupTimeout:   cfg.LookupTimeout,
		Eligibility:     opts.Eligibility,
	}
	if opts.Repository != nil {
		engineCfg.Duplicates = opts.Repository
	}
	e := engine.New(engineCfg)

	return &service{
		cfg:          cfg,
		catalog:      cat,
		engine:       e,
		orchestrator: batch.New(e, cfg.Workers),
		repository:   opts.Repository,
		enqueuer:     opts.Enqueuer,
		logger:       log.API,
	}
}

// LoadCatalog reads the catalog at cfg.CatalogPath, or returns the built-in
// catalog when no path is configured.
func LoadCatalog(cfg *Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		return nil, errors.Wrap(err, constants.CatalogLoadErr)
	}
	return cat, nil
}

func (s *service) ruleConfig(categories []models.Category) engine.RuleConfig {
	return engine.RuleConfig{Catalog: s.catalog.Snapshot(), Categories: categories}
}

func (s *service) ValidateClaim(ctx context.Context, claim *models.Claim, categories []models.Category) (models.ValidationResult, error) {
	return s.engine.Validate(ctx, claim, s.ruleConfig(categories))
}

func (s *service) ValidateBatch(ctx context.Context, claims []models.Claim, categories []models.Category) (*models.BatchResult, error) {
	if err := s.checkBatchSize(len(claims)); err != nil {
		return nil, err
	}
	return s.orchestrator.ValidateBatch(ctx, claims, s.ruleConfig(categories))
}

func (s *service) SubmitBatch(ctx context.Context, claims []models.Claim, categories []models.Category) (*models.Batch, error) {
	if s.repository == nil || s.enqueuer == nil {
		return nil, ErrAsyncUnavailable
	}
	if err := s.checkBatchSize(len(claims)); err != nil {
		return nil, err
	}
	// Reject a broken configuration now rather than in the worker.
	if _, err := s.engine.Prepare(s.ruleConfig(categories)); err != nil {
		return nil, err
	}

	b := models.Batch{
		ID:         uuid.NewRandom().String(),
		Status:     constants.BatchPending,
		ClaimCount: len(claims),
	}
	if err := s.repository.CreateBatch(ctx, b); err != nil {
		return nil, errors.Wrap(err, "failed to create batch")
	}

	args := models.ValidateBatchArgs{BatchID: b.ID, Claims: claims, Categories: categories}
	if err := s.enqueuer.AddValidateBatchJob(ctx, args); err != nil {
		if updateErr := s.repository.UpdateBatchStatus(ctx, b.ID, constants.BatchFailed); updateErr != nil {
			s.logger.WithField("batch_id", b.ID).Errorf("Failed to mark batch as failed: %s", updateErr)
		}
		return nil, errors.Wrap(err, "failed to enqueue batch")
	}

	s.logger.WithFields(logrus.Fields{"batch_id": b.ID, "claim_count": b.ClaimCount}).Info("Batch queued for validation")
	return &b, nil
}

func (s *service) GetBatch(ctx context.Context, batchID string) (*models.Batch, error) {
	if s.repository == nil {
		return nil, ErrAsyncUnavailable
	}
	return s.repository.GetBatch(ctx, batchID)
}

func (s *service) ListRules(ctx context.Context, categories ...models.Category) []models.Rule {
	rules := s.catalog.ListRules()
	if len(categories) == 0 {
		return rules
	}

	wanted := make(map[models.Category]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}
	filtered := make([]models.Rule, 0, len(rules))
	for _, r := range rules {
		if wanted[r.Category] {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func (s *service) SetRuleEnabled(ctx context.Context, ruleID string, enabled bool) (models.Rule, error) {
	if _, err := s.catalog.Rule(ruleID); err != nil {
		return models.Rule{}, err
	}

	if s.repository != nil {
		if err := s.repository.SetRuleEnabled(ctx, ruleID, enabled); err != nil {
			return models.Rule{}, errors.Wrapf(err, "failed to persist setting for rule %s", ruleID)
		}
	}
	if err := s.catalog.SetEnabled(ruleID, enabled); err != nil {
		return models.Rule{}, err
	}

	log.WriteInfoWithFields(ctx, "Rule setting updated", logrus.Fields{"rule_id": ruleID, "enabled": enabled})

	return s.catalog.Rule(ruleID)
}

func (s *service) SyncRuleSettings(ctx context.Context) error {
	if s.repository == nil {
		return nil
	}

	settings, err := s.repository.GetRuleSettings(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load rule settings")
	}
	for _, id := range s.catalog.ApplySettings(settings) {
		s.logger.WithField("rule_id", id).Warn("Ignoring stored setting for rule missing from the catalog")
	}
	return nil
}

func (s *service) checkBatchSize(size int) error {
	if s.cfg.MaxBatchSize > 0 && size > s.cfg.MaxBatchSize {
		return &scruberrors.BatchSizeError{Size: size, Max: s.cfg.MaxBatchSize}
	}
	return nil
}
