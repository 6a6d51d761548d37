package validators

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CMSgov/scrub-app/scrub/catalog"
	"github.com/CMSgov/scrub-app/scrub/models"
)

// DefaultVolumeThreshold is the procedure count above which claim splitting
// is suggested.
const DefaultVolumeThreshold = 3

// RuleFunc evaluates one rule against a claim. Implementations must not
// modify the claim.
type RuleFunc func(ctx context.Context, rule models.Rule, claim *models.Claim) models.Findings

type Config struct {
	Reference       catalog.Reference
	VolumeThreshold int
	// LookupTimeout bounds each external lookup. Zero means no bound beyond
	// the caller's context.
	LookupTimeout time.Duration
	Eligibility   EligibilityService
	Duplicates    DuplicateLookup
}

// Validators holds the field validator groups configured for one catalog
// snapshot. It is safe for concurrent use when the injected lookups are.
type Validators struct {
	placeOfService  map[string]struct{}
	necessity       NecessityTable
	volumeThreshold int
	lookupTimeout   time.Duration
	eligibility     EligibilityService
	duplicates      DuplicateLookup
}

func New(cfg Config) *Validators {
	v := &Validators{
		placeOfService:  make(map[string]struct{}, len(cfg.Reference.PlaceOfService)),
		necessity:       NewNecessityTable(cfg.Reference.Necessity),
		volumeThreshold: cfg.VolumeThreshold,
		lookupTimeout:   cfg.LookupTimeout,
		eligibility:     cfg.Eligibility,
		duplicates:      cfg.Duplicates,
	}
	if v.volumeThreshold <= 0 {
		v.volumeThreshold = DefaultVolumeThreshold
	}
	for _, code := range cfg.Reference.PlaceOfService {
		v.placeOfService[strings.TrimSpace(code)] = struct{}{}
	}
	return v
}

// Rules returns the rule implementations keyed by rule id.
func (v *Validators) Rules() map[string]RuleFunc {
	return map[string]RuleFunc{
		catalog.MissingDemographics:   v.Demographics,
		catalog.MissingInsuranceIDs:   v.InsuranceIdentification,
		catalog.EligibilityRisk:       v.EligibilityRisk,
		catalog.InvalidProcedureCode:  v.ProcedureCodes,
		catalog.InvalidModifier:       v.Modifiers,
		catalog.InvalidDiagnosisCode:  v.DiagnosisCodes,
		catalog.MedicalNecessity:      v.MedicalNecessity,
		catalog.DuplicateClaim:        v.Duplicate,
		catalog.InvalidPlaceOfService: v.PlaceOfService,
		catalog.ClaimVolume:           v.Volume,
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func (v *Validators) Demographics(ctx context.Context, rule models.Rule, claim *models.Claim) models.Findings {
	var missing, fields []string
	if blank(claim.Patient.Name) {
		missing = append(missing, "name")
		fields = append(fields, "patient.name")
	}
	if blank(claim.Patient.DateOfBirth) {
		missing = append(missing, "date of birth")
		fields = append(fields, "patient.dateOfBirth")
	}
	if len(missing) == 0 {
		return models.Findings{}
	}

	return models.Findings{Errors: []models.ClaimError{{
		Code:             rule.ID,
		Field:            strings.Join(fields, ","),
		Description:      "Missing required patient demographics: " + strings.Join(missing, ", "),
		Severity:         rule.Severity,
		AutoFixAvailable: rule.AutoFix,
		RequiredAction:   "Add the missing patient information from the registration record",
	}}}
}

func (v *Validators) InsuranceIdentification(ctx context.Context, rule models.Rule, claim *models.Claim) models.Findings {
	var missing, fields []string
	if blank(claim.Insurance.MemberID) {
		missing = append(missing, "member ID")
		fields = append(fields, "insurance.memberId")
	}
	if blank(claim.Insurance.PayerID) {
		missing = append(missing, "payer ID")
		fields = append(fields, "insurance.payerId")
	}
	if len(missing) == 0 {
		return models.Findings{}
	}

	return models.Findings{Errors: []models.ClaimError{{
		Code:             rule.ID,
		Field:            strings.Join(fields, ","),
		Description:      "Missing insurance identification: " + strings.Join(missing, ", "),
		Severity:         rule.Severity,
		AutoFixAvailable: rule.AutoFix,
		RequiredAction:   "Obtain the member and payer identifiers from the insurance card",
	}}}
}

// EligibilityRisk warns when coverage cannot be confirmed. Claims missing
// either identifier are left to the identification rule.
func (v *Validators) EligibilityRisk(ctx context.Context, rule models.Rule, claim *models.Claim) models.Findings {
	memberID := strings.TrimSpace(claim.Insurance.MemberID)
	payerID := strings.TrimSpace(claim.Insurance.PayerID)
	if memberID == "" || payerID == "" {
		return models.Findings{}
	}

	status := Unknown
	if v.eligibility != nil {
		var err error
		status, err = withTimeout(ctx, "eligibility", v.lookupTimeout, func(ctx context.Context) (EligibilityStatus, error) {
			return v.eligibility.CheckEligibility(ctx, memberID, payerID)
		})
		if err != nil {
			return lookupFailure(rule.ID, "insurance", "Eligibility", err)
		}
	}

	var description string
	switch status {
	case Eligible:
		return models.Findings{}
	case Ineligible:
		description = fmt.Sprintf("Member %s is not eligible for coverage with payer %s", memberID, payerID)
	default:
		description = "Real-time eligibility could not be confirmed"
	}

	return models.Findings{Warnings: []models.ClaimWarning{{
		Code:           rule.ID,
		Field:          "insurance",
		Description:    description,
		Impact:         models.DenialRisk,
		Recommendation: "Verify eligibility with the payer before submission",
	}}}
}

func (v *Validators) ProcedureCodes(ctx context.Context, rule models.Rule, claim *models.Claim) models.Findings {
	var findings models.Findings
	for i, p := range claim.Procedures {
		if ValidCPT(p.Code) {
			continue
		}
		findings.Errors = append(findings.Errors, models.ClaimError{
			Code:             rule.ID,
			Field:            fmt.Sprintf("procedures[%d].code", i),
			Description:      fmt.Sprintf("Invalid CPT code format: %q", p.Code),
			Severity:         rule.Severity,
			AutoFixAvailable: rule.AutoFix,
			RequiredAction:   "Correct the procedure code to a valid 5-digit CPT code",
			SuggestedFix:     CPTFix(p.Code),
		})
	}
	return findings
}

func (v *Validators) Modifiers(ctx context.Context, rule models.Rule, claim *models.Claim) models.Findings {
	var findings models.Findings
	for i, p := range claim.Procedures {
		for j, m := range p.Modifiers {
			if ValidModifier(m) {
				continue
			}
			findings.Warnings = append(findings.Warnings, models.ClaimWarning{
				Code:           rule.ID,
				Field:          fmt.Sprintf("procedures[%d].modifiers[%d]", i, j),
				Description:    fmt.Sprintf("Invalid modifier format: %q", m),
				Impact:         models.ReductionRisk,
				Recommendation: "Use a two character alphanumeric modifier",
			})
		}
	}
	return findings
}

func (v *Validators) DiagnosisCodes(ctx context.Context, rule models.Rule, claim *models.Claim) models.Findings {
	var findings models.Findings
	for i, d := range claim.Diagnoses {
		if ValidICD10(d.Code) {
			continue
		}
		findings.Errors = append(findings.Errors, models.ClaimError{
			Code:             rule.ID,
			Field:            fmt.Sprintf("diagnoses[%d].code", i),
			Description:      fmt.Sprintf("Invalid ICD-10 code format: %q", d.Code),
			Severity:         rule.Severity,
			AutoFixAvailable: rule.AutoFix,
			RequiredAction:   "Correct the diagnosis code to a valid ICD-10 code",
			SuggestedFix:     ICD10Fix(d.Code),
		})
	}
	return findings
}

// MedicalNecessity warns once when any billed procedure lacks a diagnosis the
// necessity table accepts for it.
func (v *Validators) MedicalNecessity(ctx context.Context, rule models.Rule, claim *models.Claim) models.Findings {
	var unsupported []string
	for _, p := range claim.Procedures {
		if !v.necessity.Restricts(p.Code) {
			continue
		}
		supported := false
		for _, d := range claim.Diagnoses {
			if v.necessity.Supports(p.Code, d.Code) {
				supported = true
				break
			}
		}
		if !supported {
			unsupported = append(unsupported, strings.TrimSpace(p.Code))
		}
	}
	if len(unsupported) == 0 {
		return models.Findings{}
	}

	return models.Findings{Warnings: []models.ClaimWarning{{
		Code:           rule.ID,
		Field:          "diagnoses",
		Description:    "No diagnosis supports medical necessity for procedures " + strings.Join(unsupported, ", "),
		Impact:         models.DenialRisk,
		Recommendation: "Add a diagnosis code that supports the billed procedures",
	}}}
}

func (v *Validators) Duplicate(ctx context.Context, rule models.Rule, claim *models.Claim) models.Findings {
	patientKey := claim.PatientKey()
	if v.duplicates == nil || patientKey == "" {
		return models.Findings{}
	}

	found, err := withTimeout(ctx, "duplicate", v.lookupTimeout, func(ctx context.Context) (bool, error) {
		return v.duplicates.FindDuplicate(ctx, patientKey, strings.TrimSpace(claim.ServiceDate), claim.ProcedureCodes())
	})
	if err != nil {
		return lookupFailure(rule.ID, "claim", "Duplicate claim", err)
	}
	if !found {
		return models.Findings{}
	}

	return models.Findings{Errors: []models.ClaimError{{
		Code:             rule.ID,
		Field:            "claim",
		Description:      "A claim for this patient, service date and procedure set was already submitted",
		Severity:         rule.Severity,
		AutoFixAvailable: rule.AutoFix,
		RequiredAction:   "Void this claim or submit it as a corrected claim",
	}}}
}

func (v *Validators) PlaceOfService(ctx context.Context, rule models.Rule, claim *models.Claim) models.Findings {
	if _, ok := v.placeOfService[strings.TrimSpace(claim.PlaceOfService)]; ok {
		return models.Findings{}
	}

	return models.Findings{Warnings: []models.ClaimWarning{{
		Code:           rule.ID,
		Field:          "placeOfService",
		Description:    fmt.Sprintf("Place of service %q is not a recognized code", claim.PlaceOfService),
		Impact:         models.DelayRisk,
		Recommendation: "Use a valid CMS place of service code",
	}}}
}

func (v *Validators) Volume(ctx context.Context, rule models.Rule, claim *models.Claim) models.Findings {
	if len(claim.Procedures) <= v.volumeThreshold {
		return models.Findings{}
	}

	return models.Findings{Suggestions: []models.Suggestion{{
		Code:            rule.ID,
		Field:           "procedures",
		Description:     fmt.Sprintf("Claim has %d procedures; consider splitting it", len(claim.Procedures)),
		ExpectedBenefit: "Faster adjudication and smaller exposure to partial denials",
	}}}
}
