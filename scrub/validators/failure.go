package validators

import (
	"github.com/pkg/errors"

	scruberrors "github.com/CMSgov/scrub-app/scrub/errors"
	"github.com/CMSgov/scrub-app/scrub/models"
)

const (
	timeoutSuffix     = "_TIMEOUT"
	unavailableSuffix = "_UNAVAILABLE"
)

// lookupFailure converts a failed external lookup into a warning whose code
// distinguishes a timeout from any other failure.
func lookupFailure(ruleID, field, name string, err error) models.Findings {
	code := ruleID + unavailableSuffix
	description := name + " lookup failed: " + err.Error()

	var lookupErr *scruberrors.LookupError
	if errors.As(err, &lookupErr) && lookupErr.Timeout {
		code = ruleID + timeoutSuffix
		description = name + " lookup timed out"
	}

	return models.Findings{Warnings: []models.ClaimWarning{{
		Code:           code,
		Field:          field,
		Description:    description,
		Impact:         models.DenialRisk,
		Recommendation: "Retry validation once the lookup service is available",
	}}}
}
