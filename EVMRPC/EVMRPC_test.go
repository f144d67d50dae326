package EVMRPC

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetriesExhaustsListPerAttempt(t *testing.T) {
	urls := []string{"a", "b", "c"}
	calls := 0

	_, err := withRetries(3, urls, func(url string) (int, error) {
		calls++
		return 0, errors.New("refused")
	})
	require.Error(t, err)
	assert.Equal(t, 3*len(urls), calls)
}

func TestWithRetriesStopsOnFirstSuccess(t *testing.T) {
	urls := []string{"a", "b"}
	calls := 0

	res, err := withRetries(3, urls, func(url string) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("refused")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, res)
	assert.Equal(t, 3, calls)
}

func TestWithRetriesKeepsLastError(t *testing.T) {
	_, err := withRetries(2, []string{"a"}, func(url string) (int, error) {
		return 0, errors.New("endpoint " + url + " down")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint a down")
}
