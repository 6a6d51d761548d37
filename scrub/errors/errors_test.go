package errors

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsFatalConfig(t *testing.T) {
	catalogErr := &CatalogError{Msg: "catalog has no rules"}

	assert.True(t, IsFatalConfig(catalogErr))
	assert.True(t, IsFatalConfig(errors.Wrap(catalogErr, "validate batch")))
	assert.False(t, IsFatalConfig(&RuleNotFoundError{RuleID: "X"}))
	assert.False(t, IsFatalConfig(nil))
}

func TestIsRuleNotFound(t *testing.T) {
	assert.True(t, IsRuleNotFound(errors.Wrap(&RuleNotFoundError{RuleID: "NOPE"}, "toggle")))
	assert.False(t, IsRuleNotFound(errors.New("other")))
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"rule not found", &RuleNotFoundError{RuleID: "XYZ_001"}, "no rule found for id XYZ_001"},
		{"catalog without cause", &CatalogError{Msg: "empty"}, "Catalog Error. Msg: empty"},
		{"catalog with cause", &CatalogError{Msg: "parse", Err: errors.New("bad toml")}, "Catalog Error. Msg: parse, Err: bad toml"},
		{"lookup timeout", &LookupError{Lookup: "eligibility", Err: context.DeadlineExceeded, Timeout: true}, "eligibility lookup timed out: context deadline exceeded"},
		{"lookup failure", &LookupError{Lookup: "duplicate", Err: errors.New("conn refused")}, "duplicate lookup failed: conn refused"},
		{"claim index", &InvalidClaimError{Index: 2, Err: errors.New("bad json")}, "invalid claim at index 2: bad json"},
		{"claim no index", &InvalidClaimError{Index: -1, Err: errors.New("bad json")}, "invalid claim: bad json"},
		{"batch size", &BatchSizeError{Size: 12, Max: 10}, "batch of 12 claims exceeds the maximum of 10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.msg)
		})
	}
}

func TestLookupErrorUnwraps(t *testing.T) {
	err := &LookupError{Lookup: "eligibility", Err: context.DeadlineExceeded, Timeout: true}
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
