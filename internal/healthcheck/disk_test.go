package healthcheck_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/budgetanalyzer/currency-service/internal/healthcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_ReportsUsageForExistingVolume(t *testing.T) {
	dir := t.TempDir()
	check := healthcheck.NewDiskCheck(filepath.Join(dir, "fxrates.db"))

	result, err := check.Check(context.Background())
	require.NoError(t, err)
	assert.Greater(t, result.TotalBytes, uint64(0))
	assert.GreaterOrEqual(t, result.FreeRatio, 0.0)
	assert.LessOrEqual(t, result.FreeRatio, 1.0)
}
