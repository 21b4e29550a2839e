package entity

import (
	"context"

	"github.com/diskview/diskview/internal/analyze"
)

// Directory is the entity variant for directories. Its deep inspection
// counts immediate children and their total size via the driver's Lister
// capability.
type Directory struct {
	base
}

// ToRecord computes (or returns the memoized) metadata record.
func (d *Directory) ToRecord(ctx context.Context) (*Record, error) {
	return d.toRecord(ctx, d)
}

// Meta inspects the directory listing.
func (d *Directory) Meta(ctx context.Context) (map[string]any, error) {
	return analyze.Directory(ctx, d.driver, d.path), nil
}
