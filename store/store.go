// Package store defines where the transaction log is read from. The
// pipeline performs one bulk read at the start; implementations cover the
// CSV export and the processor's Postgres reporting database.
package store

import (
	"context"
	"time"

	"github.com/YuminosukeSato/merchantcast/dataset"
)

// TransactionSource loads the transaction log for a date range, endpoints
// inclusive. A zero time on either end leaves that end unbounded.
type TransactionSource interface {
	LoadRange(ctx context.Context, from, to time.Time) (*dataset.Table, error)
}
