package postgres

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YuminosukeSato/merchantcast/dataset"
	"github.com/YuminosukeSato/merchantcast/pkg/errors"
	"github.com/YuminosukeSato/merchantcast/store"
)

// TransactionStore implements store.TransactionSource over the
// daily_merchant_transactions reporting table.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ store.TransactionSource = (*TransactionStore)(nil)

// LoadRange bulk-reads daily per-merchant transaction aggregates for the
// given date range, endpoints inclusive. The table invariant of one row per
// (merchant, date) is re-validated by dataset.NewTable.
func (s *TransactionStore) LoadRange(ctx context.Context, from, to time.Time) (*dataset.Table, error) {
	query := `
		SELECT row_id, merchant_id, transaction_date, total_transaction, total_paid
		FROM daily_merchant_transactions
		WHERE ($1::date IS NULL OR transaction_date >= $1)
		  AND ($2::date IS NULL OR transaction_date <= $2)
		ORDER BY merchant_id, transaction_date
	`

	var fromArg, toArg interface{}
	if !from.IsZero() {
		fromArg = from
	}
	if !to.IsZero() {
		toArg = to
	}

	pgRows, err := s.pool.Query(ctx, query, fromArg, toArg)
	if err != nil {
		return nil, errors.Wrap(err, "load transaction range")
	}
	defer pgRows.Close()

	var rows []dataset.Transaction
	for pgRows.Next() {
		var (
			tx   dataset.Transaction
			date time.Time
			paid string
		)
		if err := pgRows.Scan(&tx.RowID, &tx.MerchantID, &date, &tx.Count, &paid); err != nil {
			return nil, errors.Wrap(err, "scan transaction row")
		}
		tx.Date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		// numeric comes back as text so the amount survives exactly
		tx.Paid, err = decimal.NewFromString(paid)
		if err != nil {
			return nil, errors.NewInvalidInputError("postgres.LoadRange", "total_paid", err.Error())
		}
		rows = append(rows, tx)
	}
	if err := pgRows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate transaction rows")
	}

	return dataset.NewTable(rows)
}
