package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

type RuleNotFoundError struct {
	RuleID string
}

func (e *RuleNotFoundError) Error() string {
	return fmt.Sprintf("no rule found for id %s", e.RuleID)
}

// CatalogError is a fatal configuration problem: an empty, corrupt or
// inconsistent rule catalog. It aborts a validation call before any claim is
// processed.
type CatalogError struct {
	Err error
	Msg string
}

func (e *CatalogError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("Catalog Error. Msg: %s", e.Msg)
	}
	return fmt.Sprintf("Catalog Error. Msg: %s, Err: %s", e.Msg, e.Err)
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

// LookupError wraps a failure of an external collaborator (eligibility
// service, duplicate lookup).
type LookupError struct {
	Err     error
	Lookup  string
	Timeout bool
}

func (e *LookupError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s lookup timed out: %s", e.Lookup, e.Err)
	}
	return fmt.Sprintf("%s lookup failed: %s", e.Lookup, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

type UnexpectedStatusCodeError struct {
	Err        error
	StatusCode int
}

func (e *UnexpectedStatusCodeError) Error() string {
	return fmt.Sprintf("Unexpected Status Code %d: %s", e.StatusCode, e.Err)
}

// InvalidClaimError is returned when a claim payload cannot be decoded.
type InvalidClaimError struct {
	Err   error
	Index int
}

func (e *InvalidClaimError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid claim: %s", e.Err)
	}
	return fmt.Sprintf("invalid claim at index %d: %s", e.Index, e.Err)
}

func (e *InvalidClaimError) Unwrap() error {
	return e.Err
}

// BatchSizeError is returned when a batch holds more claims than allowed.
type BatchSizeError struct {
	Size int
	Max  int
}

func (e *BatchSizeError) Error() string {
	return fmt.Sprintf("batch of %d claims exceeds the maximum of %d", e.Size, e.Max)
}

// IsFatalConfig reports whether err must abort a whole validation call.
func IsFatalConfig(err error) bool {
	var catalogErr *CatalogError
	return errors.As(err, &catalogErr)
}

// IsRuleNotFound reports whether err is (or wraps) a RuleNotFoundError.
func IsRuleNotFound(err error) bool {
	var notFound *RuleNotFoundError
	return errors.As(err, &notFound)
}
