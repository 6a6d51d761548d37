package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/CMSgov/scrub-app/log"
	"github.com/CMSgov/scrub-app/scrub/catalog"
	scruberrors "github.com/CMSgov/scrub-app/scrub/errors"
	"github.com/CMSgov/scrub-app/scrub/metrics"
	"github.com/CMSgov/scrub-app/scrub/models"
	"github.com/CMSgov/scrub-app/scrub/validators"
)

// FaultCode identifies the error recorded when a validator fails internally.
const FaultCode = "VALIDATOR_FAULT"

// RuleConfig selects the rules applied to a claim.
type RuleConfig struct {
	Catalog catalog.Snapshot
	// Categories, when non-empty, restricts evaluation to enabled rules of
	// these categories.
	Categories []models.Category
}

type Config struct {
	VolumeThreshold int
	LookupTimeout   time.Duration
	Eligibility     validators.EligibilityService
	Duplicates      validators.DuplicateLookup
	// Rules adds or replaces rule implementations by rule id.
	Rules map[string]validators.RuleFunc
}

// Engine validates claims against a rule configuration.
type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Plan is a rule configuration resolved to executable validators. A Plan is
// immutable and safe for concurrent use.
type Plan struct {
	rules []models.Rule
	funcs []validators.RuleFunc
}

// Prepare resolves cfg into a Plan. Configuration faults are fatal and are
// reported before any claim is evaluated.
func (e *Engine) Prepare(cfg RuleConfig) (*Plan, error) {
	if err := cfg.Catalog.Validate(); err != nil {
		return nil, err
	}
	for _, c := range cfg.Categories {
		if !c.Valid() {
			return nil, &scruberrors.CatalogError{Msg: fmt.Sprintf("unknown category %q", c)}
		}
	}

	registry := validators.New(validators.Config{
		Reference:       cfg.Catalog.Reference,
		VolumeThreshold: e.cfg.VolumeThreshold,
		LookupTimeout:   e.cfg.LookupTimeout,
		Eligibility:     e.cfg.Eligibility,
		Duplicates:      e.cfg.Duplicates,
	}).Rules()
	for id, fn := range e.cfg.Rules {
		registry[id] = fn
	}

	plan := &Plan{}
	for _, rule := range cfg.Catalog.EnabledRules(cfg.Categories...) {
		fn, ok := registry[rule.ID]
		if !ok {
			return nil, &scruberrors.CatalogError{Msg: fmt.Sprintf("no validator registered for rule %s", rule.ID)}
		}
		plan.rules = append(plan.rules, rule)
		plan.funcs = append(plan.funcs, fn)
	}
	return plan, nil
}

// Validate evaluates a single claim.
func (e *Engine) Validate(ctx context.Context, claim *models.Claim, cfg RuleConfig) (models.ValidationResult, error) {
	plan, err := e.Prepare(cfg)
	if err != nil {
		return models.ValidationResult{}, err
	}

	ctx, closeTimer := metrics.NewParent(ctx, "ValidateClaim")
	defer closeTimer()
	return plan.Validate(ctx, claim), nil
}

// Rules returns the rules the plan evaluates, in order.
func (p *Plan) Rules() []models.Rule {
	return append([]models.Rule{}, p.rules...)
}

// Validate runs every rule of the plan against claim. A failing validator
// yields one critical fault error for its category and never stops the
// remaining rules.
func (p *Plan) Validate(ctx context.Context, claim *models.Claim) models.ValidationResult {
	start := time.Now()

	var findings models.Findings
	faulted := make(map[models.Category]bool)
	for i, rule := range p.rules {
		out, fault := run(ctx, p.funcs[i], rule, claim)
		if fault == nil {
			findings.Append(out)
			continue
		}
		if faulted[rule.Category] {
			continue
		}
		faulted[rule.Category] = true
		findings.Errors = append(findings.Errors, *fault)
	}

	result := models.NewValidationResult(claim, findings)
	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	return result
}

func run(ctx context.Context, fn validators.RuleFunc, rule models.Rule, claim *models.Claim) (findings models.Findings, fault *models.ClaimError) {
	closeTimer := metrics.NewChild(ctx, "rule "+rule.ID)
	defer closeTimer()

	defer func() {
		if r := recover(); r != nil {
			log.Engine.WithFields(logrus.Fields{
				"rule_id":  rule.ID,
				"category": rule.Category,
				"claim_id": claim.EffectiveID(),
				"stack":    string(debug.Stack()),
			}).Errorf("Validator panicked: %v", r)

			findings = models.Findings{}
			fault = &models.ClaimError{
				Code:           FaultCode,
				Field:          string(rule.Category),
				Description:    fmt.Sprintf("Validator for rule %s failed: %v", rule.ID, r),
				Severity:       models.Critical,
				RequiredAction: "Review the claim manually; automated validation of this category did not complete",
			}
		}
	}()

	return fn(ctx, rule, claim), nil
}
