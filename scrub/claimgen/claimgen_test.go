package claimgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CMSgov/scrub-app/scrub/catalog"
	"github.com/CMSgov/scrub-app/scrub/engine"
	"github.com/CMSgov/scrub-app/scrub/models"
	"github.com/CMSgov/scrub-app/scrub/validators"
)

func validate(t *testing.T, claim models.Claim) models.ValidationResult {
	e := engine.New(engine.Config{Eligibility: validators.StaticEligibility(validators.Eligible)})
	result, err := e.Validate(context.Background(), &claim, engine.RuleConfig{Catalog: catalog.Default().Snapshot()})
	require.NoError(t, err)
	return result
}

func TestCleanClaimsPass(t *testing.T) {
	for i := 0; i < 50; i++ {
		result := validate(t, Claim(NoDefect))
		assert.Equal(t, models.Passed, result.Status, "%+v", result)
	}
}

func TestDefects(t *testing.T) {
	tests := []struct {
		defect Defect
		code   string
	}{
		{MissingDateOfBirth, "DEMO_001"},
		{MissingPayerID, "INS_001"},
		{ShortProcedureCode, "COD_001"},
		{MalformedDiagnosis, "COD_003"},
		{UnknownPlaceOfService, "BIL_002"},
		{MalformedModifier, "COD_002"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			result := validate(t, Claim(tt.defect))
			var found []string
			for _, e := range result.Errors {
				found = append(found, e.Code)
			}
			for _, w := range result.Warnings {
				found = append(found, w.Code)
			}
			assert.Equal(t, []string{tt.code}, found)
			assert.NotEqual(t, models.Passed, result.Status)
		})
	}
}

func TestGenerate(t *testing.T) {
	assert.Len(t, Generate(25, 0.5), 25)
	assert.Empty(t, Generate(0, 0.5))

	for _, c := range Generate(20, 0) {
		assert.Equal(t, models.Passed, validate(t, c).Status)
	}
	for _, c := range Generate(20, 1) {
		assert.NotEqual(t, models.Passed, validate(t, c).Status)
	}
}
