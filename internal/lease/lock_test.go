package lease_test

import (
	"context"
	"testing"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/clock"
	"github.com/budgetanalyzer/currency-service/internal/db/testdb"
	"github.com/budgetanalyzer/currency-service/internal/lease"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryAcquire_SecondHolderBlockedUntilExpiry(t *testing.T) {
	database := testdb.Open(t)
	clk := &clock.Fixed{At: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}

	holderA := lease.New(database.Conn(), "replica-a", clk)
	holderB := lease.New(database.Conn(), "replica-b", clk)
	ctx := context.Background()

	first, err := holderA.TryAcquire(ctx, "import", 15*time.Minute, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := holderB.TryAcquire(ctx, "import", 15*time.Minute, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, second, "a live lease must not be stolen by another replica")

	clk.At = clk.At.Add(16 * time.Minute)

	third, err := holderB.TryAcquire(ctx, "import", 15*time.Minute, time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, third, "an expired lease must be acquirable by another replica")
}

func TestRelease_ClampsToHoldAtLeast(t *testing.T) {
	database := testdb.Open(t)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := &clock.Fixed{At: start}
	locker := lease.New(database.Conn(), "replica-a", clk)
	ctx := context.Background()

	held, err := locker.TryAcquire(ctx, "import", 15*time.Minute, 5*time.Minute)
	require.NoError(t, err)
	require.NotNil(t, held)

	clk.At = start.Add(time.Minute)
	require.NoError(t, held.Release(ctx))

	other := lease.New(database.Conn(), "replica-b", clk)
	stolen, err := other.TryAcquire(ctx, "import", 15*time.Minute, 5*time.Minute)
	require.NoError(t, err)
	assert.Nil(t, stolen, "release must not free the lease before holdAtLeast elapses")

	clk.At = start.Add(6 * time.Minute)
	stolen, err = other.TryAcquire(ctx, "import", 15*time.Minute, 5*time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, stolen, "lease must be free once holdAtLeast has elapsed")
}
