package validators

import (
	"context"
	"time"

	"github.com/pkg/errors"

	scruberrors "github.com/CMSgov/scrub-app/scrub/errors"
)

type EligibilityStatus string

const (
	Eligible   EligibilityStatus = "eligible"
	Ineligible EligibilityStatus = "ineligible"
	Unknown    EligibilityStatus = "unknown"
)

// EligibilityService confirms a member's coverage with a payer.
type EligibilityService interface {
	CheckEligibility(ctx context.Context, memberID, payerID string) (EligibilityStatus, error)
}

// DuplicateLookup searches the store of submitted claims.
type DuplicateLookup interface {
	FindDuplicate(ctx context.Context, patientID, serviceDate string, procedureCodes []string) (bool, error)
}

// StaticEligibility answers every eligibility check with the same status.
type StaticEligibility EligibilityStatus

func (s StaticEligibility) CheckEligibility(ctx context.Context, memberID, payerID string) (EligibilityStatus, error) {
	return EligibilityStatus(s), nil
}

type lookupResult[T any] struct {
	value T
	err   error
}

// withTimeout runs fn under a context bounded by timeout (unbounded when
// timeout <= 0) and classifies any failure as a LookupError. The deadline is
// enforced even when fn ignores its context.
func withTimeout[T any](ctx context.Context, name string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	lookupCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan lookupResult[T], 1)
	go func() {
		value, err := fn(lookupCtx)
		done <- lookupResult[T]{value, err}
	}()

	var zero T
	select {
	case res := <-done:
		if res.err == nil {
			return res.value, nil
		}
		return zero, classify(lookupCtx, name, res.err)
	case <-lookupCtx.Done():
		return zero, classify(lookupCtx, name, lookupCtx.Err())
	}
}

func classify(lookupCtx context.Context, name string, err error) error {
	deadline := lookupCtx.Err() == context.DeadlineExceeded

	var lookupErr *scruberrors.LookupError
	if errors.As(err, &lookupErr) {
		return &scruberrors.LookupError{
			Err:     lookupErr.Err,
			Lookup:  lookupErr.Lookup,
			Timeout: lookupErr.Timeout || deadline,
		}
	}

	return &scruberrors.LookupError{Err: err, Lookup: name, Timeout: deadline || errors.Is(err, context.DeadlineExceeded)}
}
