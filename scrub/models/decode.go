package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dimchansky/utfbom"

	scruberrors "github.com/CMSgov/scrub-app/scrub/errors"
)

// ParseCategories converts category names to Categories, rejecting any name
// that is not a known category.
func ParseCategories(names []string) ([]Category, error) {
	categories := make([]Category, 0, len(names))
	for _, name := range names {
		c := Category(strings.ToLower(strings.TrimSpace(name)))
		if !c.Valid() {
			return nil, fmt.Errorf("unknown category %q", name)
		}
		categories = append(categories, c)
	}
	return categories, nil
}

type claimsEnvelope struct {
	Claims []json.RawMessage `json:"claims"`
}

// DecodeClaims reads claims from r. The input may be a single claim, a JSON
// array of claims or an object holding a "claims" array, and may begin with a
// byte order mark.
func DecodeClaims(r io.Reader) ([]Claim, error) {
	data, err := io.ReadAll(utfbom.SkipOnly(r))
	if err != nil {
		return nil, &scruberrors.InvalidClaimError{Err: err, Index: -1}
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, &scruberrors.InvalidClaimError{Err: fmt.Errorf("empty request body"), Index: -1}
	}

	var raw []json.RawMessage
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, &scruberrors.InvalidClaimError{Err: err, Index: -1}
		}
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, &scruberrors.InvalidClaimError{Err: err, Index: -1}
		}
		if _, ok := fields["claims"]; ok {
			var env claimsEnvelope
			if err := json.Unmarshal(data, &env); err != nil {
				return nil, &scruberrors.InvalidClaimError{Err: err, Index: -1}
			}
			raw = env.Claims
		} else {
			raw = []json.RawMessage{data}
		}
	default:
		return nil, &scruberrors.InvalidClaimError{Err: fmt.Errorf("expected a JSON object or array"), Index: -1}
	}

	claims := make([]Claim, len(raw))
	for i, msg := range raw {
		if err := json.Unmarshal(msg, &claims[i]); err != nil {
			return nil, &scruberrors.InvalidClaimError{Err: err, Index: i}
		}
	}
	return claims, nil
}

// DecodeClaim reads exactly one claim from r.
func DecodeClaim(r io.Reader) (*Claim, error) {
	data, err := io.ReadAll(utfbom.SkipOnly(r))
	if err != nil {
		return nil, &scruberrors.InvalidClaimError{Err: err, Index: -1}
	}
	var claim Claim
	if err := json.Unmarshal(bytes.TrimSpace(data), &claim); err != nil {
		return nil, &scruberrors.InvalidClaimError{Err: err, Index: -1}
	}
	return &claim, nil
}
