package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCPT(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"99213", true},
		{"00100", true},
		{"9921", false},
		{"992134", false},
		{"9921A", false},
		{" 99213", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidCPT(tt.code))
		})
	}
}

func TestValidModifier(t *testing.T) {
	for _, m := range []string{"25", "LT", "59", "Q1"} {
		assert.True(t, ValidModifier(m), m)
	}
	for _, m := range []string{"2", "lt", "259", "-1", ""} {
		assert.False(t, ValidModifier(m), m)
	}
}

func TestValidICD10(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"Z00.00", true},
		{"E11.9", true},
		{"E119", true},
		{"I10", true},
		{"M54.123", true},
		{"INVALID", false},
		{"z00.00", false},
		{"E11.1234", false},
		{"1E1.9", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidICD10(tt.code))
		})
	}
}

func TestCPTFix(t *testing.T) {
	assert.Equal(t, "99213", CPTFix(" 99213"))
	assert.Equal(t, "99213", CPTFix("99-213"))
	assert.Equal(t, "", CPTFix("9921"))
	assert.Equal(t, "", CPTFix("99213"))
	assert.Equal(t, "", CPTFix("ABCDE"))
}

func TestICD10Fix(t *testing.T) {
	assert.Equal(t, "Z00.00", ICD10Fix("z00.00"))
	assert.Equal(t, "Z00.00", ICD10Fix("Z0000"))
	assert.Equal(t, "E11.9", ICD10Fix(" e11.9 "))
	assert.Equal(t, "", ICD10Fix("INVALID"))
	assert.Equal(t, "", ICD10Fix("E11.9"))
}

func TestNecessityTable(t *testing.T) {
	table := NewNecessityTable(map[string][]string{
		"99213": {"Z00.00", "E11*"},
		"97110": {},
	})

	assert.True(t, table.Supports("99213", "Z00.00"))
	assert.True(t, table.Supports("99213", "Z0000"))
	assert.True(t, table.Supports("99213", "e11.65"))
	assert.False(t, table.Supports("99213", "I10"))
	assert.False(t, table.Supports("97110", "M54.5"))
	assert.True(t, table.Restricts("97110"))

	// unlisted procedures are unconstrained without a default entry
	assert.False(t, table.Restricts("12345"))
	assert.True(t, table.Supports("12345", "I10"))

	withDefault := NewNecessityTable(map[string][]string{"*": {"*"}})
	assert.True(t, withDefault.Restricts("12345"))
	assert.True(t, withDefault.Supports("12345", "I10"))
	assert.False(t, withDefault.Supports("12345", ""))
}
