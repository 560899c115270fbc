// Package dataset holds the raw transaction log: one record per merchant per
// day, loaded in bulk at the start of the pipeline and immutable afterwards.
package dataset

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YuminosukeSato/merchantcast/pkg/errors"
)

// Transaction is one day of activity for one merchant.
type Transaction struct {
	RowID      int64
	MerchantID string
	Date       time.Time // daily granularity, UTC midnight
	Count      float64   // non-negative transaction count
	Paid       decimal.Decimal
}

// Table is an append-only transaction log ordered by (merchant, date).
// The ordering is what per-merchant lag and rolling features rely on, so it
// is established once at construction and never changed.
type Table struct {
	rows []Transaction
}

// Group is a contiguous run of rows belonging to a single merchant.
type Group struct {
	MerchantID string
	Start, End int // half-open row range [Start, End)
}

// NewTable validates and orders the given records. It fails with an invalid
// input error when two records share a (merchant, date) pair or when a
// record carries a negative transaction count.
func NewTable(rows []Transaction) (*Table, error) {
	const op = "dataset.NewTable"

	if len(rows) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, op)
	}

	sorted := make([]Transaction, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].MerchantID != sorted[j].MerchantID {
			return sorted[i].MerchantID < sorted[j].MerchantID
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})

	for i, r := range sorted {
		if r.Count < 0 {
			return nil, errors.NewInvalidInputError(op, "Total_Transaction", "negative transaction count")
		}
		if r.Date.IsZero() {
			return nil, errors.NewInvalidInputError(op, "transaction_date", "missing timestamp")
		}
		if i > 0 && sorted[i-1].MerchantID == r.MerchantID && sorted[i-1].Date.Equal(r.Date) {
			return nil, errors.NewInvalidInputError(op, "transaction_date",
				"duplicate record for merchant "+r.MerchantID+" on "+r.Date.Format("2006-01-02"))
		}
	}

	return &Table{rows: sorted}, nil
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns the ordered records. Callers must not mutate the slice.
func (t *Table) Rows() []Transaction { return t.rows }

// Groups returns the contiguous per-merchant row ranges in table order.
func (t *Table) Groups() []Group {
	var groups []Group
	for i := 0; i < len(t.rows); {
		j := i
		for j < len(t.rows) && t.rows[j].MerchantID == t.rows[i].MerchantID {
			j++
		}
		groups = append(groups, Group{MerchantID: t.rows[i].MerchantID, Start: i, End: j})
		i = j
	}
	return groups
}

// Merchants returns the distinct merchant identifiers in sorted order.
func (t *Table) Merchants() []string {
	var ids []string
	for _, g := range t.Groups() {
		ids = append(ids, g.MerchantID)
	}
	return ids
}

// Start returns the earliest date in the log.
func (t *Table) Start() time.Time {
	start := t.rows[0].Date
	for _, r := range t.rows[1:] {
		if r.Date.Before(start) {
			start = r.Date
		}
	}
	return start
}

// End returns the latest date in the log.
func (t *Table) End() time.Time {
	end := t.rows[0].Date
	for _, r := range t.rows[1:] {
		if r.Date.After(end) {
			end = r.Date
		}
	}
	return end
}
