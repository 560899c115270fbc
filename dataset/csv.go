package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YuminosukeSato/merchantcast/pkg/errors"
)

// CSVOptions holds options for loading the transaction log from CSV.
type CSVOptions struct {
	MerchantColumn string // default "merchant_id"
	DateColumn     string // default "transaction_date"
	CountColumn    string // default "Total_Transaction"
	PaidColumn     string // default "Total_Paid"
	IDColumn       string // optional; row ordinal is used when empty
	DateFormat     string // default "2006-01-02"
	Delimiter      rune   // default ','
}

// DefaultCSVOptions returns options matching the processor's export format.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		MerchantColumn: "merchant_id",
		DateColumn:     "transaction_date",
		CountColumn:    "Total_Transaction",
		PaidColumn:     "Total_Paid",
		DateFormat:     "2006-01-02",
		Delimiter:      ',',
	}
}

// Open loads a transaction table from a CSV file on disk.
func Open(path string, opts *CSVOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "dataset.Open")
	}
	defer f.Close()
	return ReadCSV(f, opts)
}

// ReadCSV loads a transaction table from CSV data. The first row must be a
// header naming at least the merchant, date and count columns; extra columns
// (such as an unnamed export index) are ignored. Malformed timestamps and
// negative counts fail immediately with an invalid input error rather than
// being deferred to feature assembly.
func ReadCSV(r io.Reader, opts *CSVOptions) (*Table, error) {
	const op = "dataset.ReadCSV"

	if opts == nil {
		opts = DefaultCSVOptions()
	}

	cr := csv.NewReader(r)
	cr.Comma = opts.Delimiter
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, errors.NewInvalidInputError(op, "", "missing header row")
	}

	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		return -1
	}

	merchantIdx := col(opts.MerchantColumn)
	dateIdx := col(opts.DateColumn)
	countIdx := col(opts.CountColumn)
	paidIdx := col(opts.PaidColumn)
	idIdx := -1
	if opts.IDColumn != "" {
		idIdx = col(opts.IDColumn)
	}

	if merchantIdx < 0 {
		return nil, errors.NewInvalidInputError(op, opts.MerchantColumn, "column not found")
	}
	if dateIdx < 0 {
		return nil, errors.NewInvalidInputError(op, opts.DateColumn, "column not found")
	}
	if countIdx < 0 {
		return nil, errors.NewInvalidInputError(op, opts.CountColumn, "column not found")
	}

	var rows []Transaction
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "%s: line %d", op, line+1)
		}
		line++

		tx := Transaction{RowID: int64(line - 2)}

		if idIdx >= 0 && idIdx < len(record) {
			id, err := strconv.ParseInt(record[idIdx], 10, 64)
			if err != nil {
				return nil, errors.NewInvalidInputError(op, opts.IDColumn,
					"line "+strconv.Itoa(line)+": not an integer row id")
			}
			tx.RowID = id
		}

		if merchantIdx >= len(record) || record[merchantIdx] == "" {
			return nil, errors.NewInvalidInputError(op, opts.MerchantColumn,
				"line "+strconv.Itoa(line)+": missing merchant id")
		}
		tx.MerchantID = record[merchantIdx]

		if dateIdx >= len(record) || record[dateIdx] == "" {
			return nil, errors.NewInvalidInputError(op, opts.DateColumn,
				"line "+strconv.Itoa(line)+": missing timestamp")
		}
		date, err := time.ParseInLocation(opts.DateFormat, record[dateIdx], time.UTC)
		if err != nil {
			return nil, errors.NewInvalidInputError(op, opts.DateColumn,
				"line "+strconv.Itoa(line)+": malformed timestamp "+strconv.Quote(record[dateIdx]))
		}
		tx.Date = date

		if countIdx >= len(record) {
			return nil, errors.NewInvalidInputError(op, opts.CountColumn,
				"line "+strconv.Itoa(line)+": missing transaction count")
		}
		count, err := strconv.ParseFloat(record[countIdx], 64)
		if err != nil || math.IsNaN(count) || math.IsInf(count, 0) {
			return nil, errors.NewInvalidInputError(op, opts.CountColumn,
				"line "+strconv.Itoa(line)+": not a finite number")
		}
		if count < 0 {
			return nil, errors.NewInvalidInputError(op, opts.CountColumn,
				"line "+strconv.Itoa(line)+": negative transaction count")
		}
		tx.Count = count

		if paidIdx >= 0 && paidIdx < len(record) && record[paidIdx] != "" {
			paid, err := decimal.NewFromString(record[paidIdx])
			if err != nil {
				return nil, errors.NewInvalidInputError(op, opts.PaidColumn,
					"line "+strconv.Itoa(line)+": not a decimal amount")
			}
			tx.Paid = paid
		}

		rows = append(rows, tx)
	}

	return NewTable(rows)
}
