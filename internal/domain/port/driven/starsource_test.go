package driven_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/starneighbours/internal/domain/port/driven"
)

func TestRateLimitError(t *testing.T) {
	err := &driven.RateLimitError{Reset: 1234567890}

	assert.Equal(t, "github rate limit exceeded, reset at 1234567890", err.Error())
	assert.Equal(t, time.Date(2009, 2, 13, 23, 31, 30, 0, time.UTC), err.ResetTime())
}

func TestProviderError(t *testing.T) {
	t.Run("with status", func(t *testing.T) {
		err := &driven.ProviderError{StatusCode: 404, Body: "Not found"}
		assert.Equal(t, "github api error: 404 - Not found", err.Error())
	})

	t.Run("transport failure unwraps to cause", func(t *testing.T) {
		err := &driven.ProviderError{Err: fmt.Errorf("get page 1: %w", context.DeadlineExceeded)}

		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		assert.Contains(t, err.Error(), "deadline exceeded")
	})

	t.Run("found through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("fetch starred for u1: %w", &driven.ProviderError{StatusCode: 502, Body: "bad gateway"})

		var pe *driven.ProviderError
		require.True(t, errors.As(wrapped, &pe))
		assert.Equal(t, 502, pe.StatusCode)
	})
}
