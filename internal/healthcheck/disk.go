// Package healthcheck implements the operational health endpoint backing
// SPEC_FULL.md §6 — a disk-headroom check over the sqlite data directory,
// grounded on the teacher's gopsutil-based system metrics handlers.
package healthcheck

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"
)

// minFreeRatio is the fraction of free space below which the database
// volume is considered unhealthy — sqlite under WAL needs headroom for
// checkpoint growth.
const minFreeRatio = 0.10

// DiskCheck reports whether the volume holding the database has enough
// free space left.
type DiskCheck struct {
	databasePath string
}

// NewDiskCheck builds a DiskCheck over the volume containing databasePath.
func NewDiskCheck(databasePath string) *DiskCheck {
	return &DiskCheck{databasePath: databasePath}
}

// Result is the outcome of a single check invocation.
type Result struct {
	Healthy       bool    `json:"healthy"`
	FreeRatio     float64 `json:"free_ratio"`
	TotalBytes    uint64  `json:"total_bytes"`
	FreeBytes     uint64  `json:"free_bytes"`
}

// Check inspects disk usage for the database's volume.
func (c *DiskCheck) Check(ctx context.Context) (Result, error) {
	dir := filepath.Dir(c.databasePath)
	usage, err := disk.UsageWithContext(ctx, dir)
	if err != nil {
		return Result{}, fmt.Errorf("read disk usage for %s: %w", dir, err)
	}

	freeRatio := 1 - usage.UsedPercent/100
	return Result{
		Healthy:    freeRatio >= minFreeRatio,
		FreeRatio:  freeRatio,
		TotalBytes: usage.Total,
		FreeBytes:  usage.Free,
	}, nil
}
