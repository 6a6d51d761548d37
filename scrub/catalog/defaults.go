package catalog

import "github.com/CMSgov/scrub-app/scrub/models"

// Rule identifiers of the built-in catalog.
const (
	MissingDemographics   = "DEMO_001"
	MissingInsuranceIDs   = "INS_001"
	EligibilityRisk       = "INS_002"
	InvalidProcedureCode  = "COD_001"
	InvalidModifier       = "COD_002"
	InvalidDiagnosisCode  = "COD_003"
	MedicalNecessity      = "CLI_001"
	DuplicateClaim        = "BIL_001"
	InvalidPlaceOfService = "BIL_002"
	ClaimVolume           = "OPT_001"
)

// Wildcard matches any procedure or diagnosis code in the necessity table.
const Wildcard = "*"

func defaultRules() []models.Rule {
	return []models.Rule{
		{ID: MissingDemographics, Category: models.Demographics, Severity: models.Critical, Enabled: true,
			Description: "Patient name and date of birth are required"},
		{ID: MissingInsuranceIDs, Category: models.InsuranceCategory, Severity: models.Critical, Enabled: true,
			Description: "Member ID and payer ID are required"},
		{ID: EligibilityRisk, Category: models.InsuranceCategory, Severity: models.High, Enabled: true,
			Description: "Real-time eligibility could not be confirmed"},
		{ID: InvalidProcedureCode, Category: models.Coding, Severity: models.Critical, AutoFix: true, Enabled: true,
			Description: "Procedure codes must be 5-digit CPT codes"},
		{ID: InvalidModifier, Category: models.Coding, Severity: models.Medium, Enabled: true,
			Description: "Procedure modifiers must be two alphanumeric characters"},
		{ID: InvalidDiagnosisCode, Category: models.Coding, Severity: models.Critical, AutoFix: true, Enabled: true,
			Description: "Diagnosis codes must be ICD-10 formatted"},
		{ID: MedicalNecessity, Category: models.Clinical, Severity: models.High, Enabled: true,
			Description: "Diagnoses must support the medical necessity of the billed procedures"},
		{ID: DuplicateClaim, Category: models.Billing, Severity: models.Critical, AutoFix: true, Enabled: true,
			Description: "Claim duplicates a previously submitted claim"},
		{ID: InvalidPlaceOfService, Category: models.Billing, Severity: models.Medium, Enabled: true,
			Description: "Place of service must be a recognized code"},
		{ID: ClaimVolume, Category: models.Billing, Severity: models.Low, Enabled: true,
			Description: "Claims with many procedures process faster when split"},
	}
}

// defaultPlaceOfService is the CMS place of service code set, without 99 (other).
var defaultPlaceOfService = []string{
	"01", "02", "03", "04", "05", "06", "07", "08", "09", "10",
	"11", "12", "13", "14", "15", "16", "17", "18", "19", "20",
	"21", "22", "23", "24", "25", "26", "27", "31", "32", "33",
	"34", "41", "42", "49", "50", "51", "52", "53", "54", "55",
	"56", "57", "58", "60", "61", "62", "65", "71", "72", "81",
}

func defaultReference() Reference {
	return Reference{
		PlaceOfService: append([]string{}, defaultPlaceOfService...),
		Necessity:      map[string][]string{Wildcard: {Wildcard}},
	}
}
