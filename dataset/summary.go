package dataset

import (
	"time"

	"github.com/shopspring/decimal"
)

// MerchantSummary aggregates one merchant's history.
type MerchantSummary struct {
	MerchantID   string
	Days         int
	Transactions float64
	Paid         decimal.Decimal // exact sum of paid amounts
}

// Summary describes the span and per-merchant totals of a transaction log.
type Summary struct {
	Start     time.Time
	End       time.Time
	Merchants []MerchantSummary
}

// Summarize computes the log's date span and per-merchant transaction and
// payment totals. Payment totals are summed as decimals so that reported
// amounts match the processor's books to the cent.
func (t *Table) Summarize() Summary {
	s := Summary{Start: t.Start(), End: t.End()}
	for _, g := range t.Groups() {
		ms := MerchantSummary{MerchantID: g.MerchantID, Days: g.End - g.Start}
		for _, r := range t.rows[g.Start:g.End] {
			ms.Transactions += r.Count
			ms.Paid = ms.Paid.Add(r.Paid)
		}
		s.Merchants = append(s.Merchants, ms)
	}
	return s
}
