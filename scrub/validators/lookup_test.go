package validators

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scruberrors "github.com/CMSgov/scrub-app/scrub/errors"
)

func TestWithTimeout(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(context.Context) (string, error)
		value   string
		timeout bool
		errMsg  string
	}{
		{
			name:  "success",
			fn:    func(ctx context.Context) (string, error) { return "ok", nil },
			value: "ok",
		},
		{
			name:   "failure",
			fn:     func(ctx context.Context) (string, error) { return "", errors.New("connection refused") },
			errMsg: "connection refused",
		},
		{
			name:    "honors deadline",
			fn:      func(ctx context.Context) (string, error) { <-ctx.Done(); return "", ctx.Err() },
			timeout: true,
		},
		{
			name:    "ignores deadline",
			fn:      func(ctx context.Context) (string, error) { time.Sleep(time.Second); return "late", nil },
			timeout: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := withTimeout(context.Background(), "test", 20*time.Millisecond, tt.fn)
			if !tt.timeout && tt.errMsg == "" {
				assert.NoError(t, err)
				assert.Equal(t, tt.value, value)
				return
			}

			assert.Empty(t, value)
			var lookupErr *scruberrors.LookupError
			require.True(t, errors.As(err, &lookupErr))
			assert.Equal(t, "test", lookupErr.Lookup)
			assert.Equal(t, tt.timeout, lookupErr.Timeout)
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestWithTimeoutParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := withTimeout(ctx, "test", time.Second, func(ctx context.Context) (bool, error) {
		time.Sleep(time.Second)
		return true, nil
	})
	var lookupErr *scruberrors.LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.False(t, lookupErr.Timeout)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithTimeoutLeavesReturnedErrorUntouched(t *testing.T) {
	shared := &scruberrors.LookupError{Err: errors.New("gateway timeout"), Lookup: "eligibility"}

	_, err := withTimeout(context.Background(), "eligibility", 20*time.Millisecond, func(ctx context.Context) (EligibilityStatus, error) {
		<-ctx.Done()
		return Unknown, shared
	})

	var lookupErr *scruberrors.LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.NotSame(t, shared, lookupErr)
	assert.True(t, lookupErr.Timeout)
	assert.False(t, shared.Timeout)
}
