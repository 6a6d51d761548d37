package models

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/pborman/uuid"
	"github.com/shopspring/decimal"
)

type Category string

const (
	Demographics      Category = "demographics"
	InsuranceCategory Category = "insurance"
	Clinical          Category = "clinical"
	Billing           Category = "billing"
	Coding            Category = "coding"
)

// Categories lists every rule category in evaluation order.
var Categories = []Category{Demographics, InsuranceCategory, Clinical, Billing, Coding}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Severity string

const (
	Critical Severity = "critical"
	High     Severity = "high"
	Medium   Severity = "medium"
	Low      Severity = "low"
)

func (s Severity) Valid() bool {
	switch s {
	case Critical, High, Medium, Low:
		return true
	}
	return false
}

type Impact string

const (
	DenialRisk    Impact = "denial_risk"
	DelayRisk     Impact = "delay_risk"
	ReductionRisk Impact = "reduction_risk"
)

type Status string

const (
	Passed   Status = "passed"
	Warnings Status = "warnings"
	Failed   Status = "failed"
)

// Rule is a catalog entry. Its Category selects the validator group that owns it.
type Rule struct {
	ID          string   `json:"id" toml:"id"`
	Category    Category `json:"category" toml:"category"`
	Description string   `json:"description" toml:"description"`
	Severity    Severity `json:"severity" toml:"severity"`
	AutoFix     bool     `json:"autoFix" toml:"auto_fix"`
	Enabled     bool     `json:"enabled" toml:"enabled"`
}

type Patient struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth"`
}

type Insurance struct {
	MemberID string `json:"memberId"`
	PayerID  string `json:"payerId"`
}

type Procedure struct {
	Code      string   `json:"code"`
	Modifiers []string `json:"modifiers"`
}

type Diagnosis struct {
	Code string `json:"code"`
}

// Claim is read-only input to validation.
type Claim struct {
	ID             string          `json:"id,omitempty"`
	Patient        Patient         `json:"patient"`
	Insurance      Insurance       `json:"insurance"`
	Procedures     []Procedure     `json:"procedures"`
	Diagnoses      []Diagnosis     `json:"diagnoses"`
	PlaceOfService string          `json:"placeOfService"`
	ServiceDate    string          `json:"serviceDate,omitempty"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
}

// claimNamespace scopes the name-based identifiers generated for claims that
// arrive without an id.
var claimNamespace = uuid.NewSHA1(uuid.NameSpace_OID, []byte("scrub.claim"))

// EffectiveID returns the caller supplied id, or a deterministic identifier
// derived from the claim's content.
func (c *Claim) EffectiveID() string {
	if id := strings.TrimSpace(c.ID); id != "" {
		return id
	}
	b, err := json.Marshal(c)
	if err != nil {
		return uuid.NewSHA1(claimNamespace, []byte(c.Patient.Name+c.Insurance.MemberID)).String()
	}
	return uuid.NewSHA1(claimNamespace, b).String()
}

// PatientKey identifies the patient for duplicate matching: the patient id
// when present, otherwise the insurance member id.
func (c *Claim) PatientKey() string {
	if id := strings.TrimSpace(c.Patient.ID); id != "" {
		return id
	}
	return strings.TrimSpace(c.Insurance.MemberID)
}

// ProcedureCodes returns the claim's procedure codes sorted, so that two
// claims with the same procedure set compare equal.
func (c *Claim) ProcedureCodes() []string {
	codes := make([]string, 0, len(c.Procedures))
	for _, p := range c.Procedures {
		codes = append(codes, strings.TrimSpace(p.Code))
	}
	sort.Strings(codes)
	return codes
}

type ClaimError struct {
	Code             string   `json:"code"`
	Field            string   `json:"field"`
	Description      string   `json:"description"`
	Severity         Severity `json:"severity"`
	AutoFixAvailable bool     `json:"autoFixAvailable"`
	RequiredAction   string   `json:"requiredAction"`
	SuggestedFix     string   `json:"suggestedFix,omitempty"`
}

type ClaimWarning struct {
	Code           string `json:"code"`
	Field          string `json:"field"`
	Description    string `json:"description"`
	Impact         Impact `json:"impact"`
	Recommendation string `json:"recommendation"`
}

type Suggestion struct {
	Code            string `json:"code"`
	Field           string `json:"field"`
	Description     string `json:"description"`
	ExpectedBenefit string `json:"expectedBenefit"`
}

// Findings collects what a validator group produced for one claim.
type Findings struct {
	Errors      []ClaimError
	Warnings    []ClaimWarning
	Suggestions []Suggestion
}

func (f *Findings) Append(other Findings) {
	f.Errors = append(f.Errors, other.Errors...)
	f.Warnings = append(f.Warnings, other.Warnings...)
	f.Suggestions = append(f.Suggestions, other.Suggestions...)
}

func (f Findings) Empty() bool {
	return len(f.Errors) == 0 && len(f.Warnings) == 0 && len(f.Suggestions) == 0
}

type ValidationResult struct {
	ClaimID          string          `json:"claimId"`
	PatientName      string          `json:"patientName"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	Status           Status          `json:"status"`
	Score            int             `json:"score"`
	Errors           []ClaimError    `json:"errors"`
	Warnings         []ClaimWarning  `json:"warnings"`
	Suggestions      []Suggestion    `json:"suggestions"`
	ProcessingTimeMs int64           `json:"processingTimeMs"`
}

// Outcome derives status and score from finding counts. Suggestions never
// contribute.
func Outcome(errorCount, warningCount int) (Status, int) {
	score := 100 - 10*errorCount - 3*warningCount
	if score < 0 {
		score = 0
	}
	switch {
	case errorCount > 0:
		return Failed, score
	case warningCount > 0:
		return Warnings, score
	default:
		return Passed, score
	}
}

// NewValidationResult assembles the result for claim from its findings. The
// finding slices are never nil so they serialize as empty arrays.
func NewValidationResult(claim *Claim, findings Findings) ValidationResult {
	result := ValidationResult{
		ClaimID:     claim.EffectiveID(),
		PatientName: claim.Patient.Name,
		TotalAmount: claim.TotalAmount,
		Errors:      append([]ClaimError{}, findings.Errors...),
		Warnings:    append([]ClaimWarning{}, findings.Warnings...),
		Suggestions: append([]Suggestion{}, findings.Suggestions...),
	}
	result.Status, result.Score = Outcome(len(result.Errors), len(result.Warnings))
	return result
}

type Summary struct {
	Total        int     `json:"total"`
	Passed       int     `json:"passed"`
	Warnings     int     `json:"warnings"`
	Failed       int     `json:"failed"`
	AverageScore float64 `json:"averageScore"`
}

type BatchResult struct {
	Results     []ValidationResult `json:"results"`
	Summary     Summary            `json:"summary"`
	Cancelled   bool               `json:"cancelled,omitempty"`
	Unprocessed int                `json:"unprocessed,omitempty"`
}

// Summarize reduces ordered results into aggregate counts. The average score
// is rounded to two decimal places.
func Summarize(results []ValidationResult) Summary {
	s := Summary{Total: len(results)}
	if len(results) == 0 {
		return s
	}

	total := decimal.Zero
	for _, r := range results {
		switch r.Status {
		case Passed:
			s.Passed++
		case Warnings:
			s.Warnings++
		case Failed:
			s.Failed++
		}
		total = total.Add(decimal.NewFromInt(int64(r.Score)))
	}
	s.AverageScore, _ = total.Div(decimal.NewFromInt(int64(len(results)))).Round(2).Float64()
	return s
}
