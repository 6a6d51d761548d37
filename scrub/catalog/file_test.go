package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scruberrors "github.com/CMSgov/scrub-app/scrub/errors"
	"github.com/CMSgov/scrub-app/scrub/models"
)

func TestLoadFile(t *testing.T) {
	c, err := LoadFile(filepath.Join("testdata", "catalog.toml"))
	require.NoError(t, err)

	rules := c.ListRules()
	require.Len(t, rules, 3)
	assert.Equal(t, models.Rule{
		ID:          "COD_001",
		Category:    models.Coding,
		Description: "Procedure codes must be 5-digit CPT codes",
		Severity:    models.Critical,
		AutoFix:     true,
		Enabled:     true,
	}, rules[1])
	assert.False(t, rules[2].Enabled)
	assert.Len(t, c.ListEnabledRules(), 2)

	ref := c.Snapshot().Reference
	assert.Equal(t, []string{"11", "21", "22"}, ref.PlaceOfService)
	assert.Equal(t, []string{"Z00.00", "E11*"}, ref.Necessity["99213"])
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		msg  string
	}{
		{"missing file", "does_not_exist.toml", "failed to load rule catalog"},
		{"corrupt", "corrupt.toml", "failed to load rule catalog"},
		{"no rules", "empty.toml", "catalog has no rules"},
		{"unknown key", "unknown_key.toml", "unrecognized catalog keys"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := LoadFile(filepath.Join("testdata", tt.file))
			assert.Nil(t, c)
			require.Error(t, err)
			assert.True(t, scruberrors.IsFatalConfig(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func copyCatalog(t *testing.T, dst string) {
	data, err := os.ReadFile(filepath.Join("testdata", "catalog.toml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, data, 0600))
}

func TestReloadKeepsToggles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	copyCatalog(t, path)

	c, err := LoadFile(path)
	require.NoError(t, err)
	require.NoError(t, c.SetEnabled("DEMO_001", false))

	require.NoError(t, c.Reload(path))
	rule, err := c.Rule("DEMO_001")
	require.NoError(t, err)
	assert.False(t, rule.Enabled)

	require.NoError(t, os.WriteFile(path, []byte("[[rules]\n"), 0600))
	assert.Error(t, c.Reload(path))
	assert.Len(t, c.ListRules(), 3)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	copyCatalog(t, path)

	c, err := LoadFile(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Watch(ctx, path))

	updated := `
[[rules]]
id = "BIL_002"
category = "billing"
description = "Place of service must be a recognized code"
severity = "medium"
enabled = true
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0600))

	assert.Eventually(t, func() bool {
		rules := c.ListRules()
		return len(rules) == 1 && rules[0].ID == "BIL_002"
	}, 5*time.Second, 50*time.Millisecond)
}
