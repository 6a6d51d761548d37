package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CMSgov/scrub-app/conf"
)

func TestGetEnvInt(t *testing.T) {
	const key = "SCRUB_TEST_INT"
	t.Cleanup(func() { assert.NoError(t, conf.UnsetEnv(t, key)) })

	assert.Equal(t, 7, GetEnvInt(key, 7))

	assert.NoError(t, conf.SetEnv(t, key, "12"))
	assert.Equal(t, 12, GetEnvInt(key, 7))

	assert.NoError(t, conf.SetEnv(t, key, "twelve"))
	assert.Equal(t, 7, GetEnvInt(key, 7))
}

func TestGetEnvBool(t *testing.T) {
	const key = "SCRUB_TEST_BOOL"
	t.Cleanup(func() { assert.NoError(t, conf.UnsetEnv(t, key)) })

	assert.True(t, GetEnvBool(key, true))

	assert.NoError(t, conf.SetEnv(t, key, "false"))
	assert.False(t, GetEnvBool(key, true))
}

func TestSplitNonEmpty(t *testing.T) {
	assert.Equal(t, []string{"coding", "billing"}, SplitNonEmpty(" coding, ,billing,"))
	assert.Nil(t, SplitNonEmpty(""))
}
