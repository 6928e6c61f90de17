package bigquery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestVarianceParams(t *testing.T) {
	params, err := latestVarianceParams("2025-2026")
	require.NoError(t, err)
	require.Len(t, params, 2)

	assert.Equal(t, "from", params[0].Name)
	assert.Equal(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), params[0].Value)
	assert.Equal(t, "to", params[1].Name)
	assert.Equal(t, time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), params[1].Value)

	_, err = latestVarianceParams("2025")
	assert.Error(t, err)
}
