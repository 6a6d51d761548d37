package validators

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	cptPattern      = regexp.MustCompile(`^\d{5}$`)
	modifierPattern = regexp.MustCompile(`^[A-Z0-9]{2}$`)
	icd10Pattern    = regexp.MustCompile(`^[A-Z]\d{2}\.?\d{0,3}$`)
	icd10Undotted   = regexp.MustCompile(`^[A-Z]\d{2}\d{1,3}$`)
)

func ValidCPT(code string) bool {
	return cptPattern.MatchString(code)
}

func ValidModifier(modifier string) bool {
	return modifierPattern.MatchString(modifier)
}

func ValidICD10(code string) bool {
	return icd10Pattern.MatchString(code)
}

// CPTFix proposes a corrected procedure code, or "" when no deterministic
// correction exists.
func CPTFix(code string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, code)
	if digits != code && ValidCPT(digits) {
		return digits
	}
	return ""
}

// ICD10Fix proposes a corrected diagnosis code, or "" when no deterministic
// correction exists.
func ICD10Fix(code string) string {
	fixed := strings.ToUpper(strings.Join(strings.Fields(code), ""))
	if icd10Undotted.MatchString(fixed) {
		fixed = fixed[:3] + "." + fixed[3:]
	}
	if fixed != code && ValidICD10(fixed) {
		return fixed
	}
	return ""
}
