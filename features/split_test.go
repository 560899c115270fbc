package features

import (
	"math"
	"testing"
	"time"

	"github.com/YuminosukeSato/merchantcast/pkg/errors"
)

func assembledFrame(t *testing.T, days int) *Frame {
	t.Helper()
	start := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	table := makeTable(t, start, map[string][]float64{
		"m_1": constSeries(days, 10),
		"m_2": constSeries(days, 20),
	})
	f, err := testAssembler().Assemble(table)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestSplit(t *testing.T) {
	f := assembledFrame(t, 30)
	cutoff := time.Date(2020, 6, 21, 0, 0, 0, 0, time.UTC)

	train, valid, err := Split(f, cutoff)
	if err != nil {
		t.Fatalf("Split() unexpected error: %v", err)
	}

	if got := train.Rows() + valid.Rows(); got != f.Len() {
		t.Errorf("split rows %d+%d != frame rows %d", train.Rows(), valid.Rows(), f.Len())
	}
	if train.Rows() != 40 || valid.Rows() != 20 {
		t.Errorf("split sizes %d/%d, want 40/20", train.Rows(), valid.Rows())
	}

	for _, d := range train.Dates {
		if !d.Before(cutoff) {
			t.Errorf("training row dated %v on or after the cutoff", d)
		}
	}
	for _, d := range valid.Dates {
		if d.Before(cutoff) {
			t.Errorf("validation row dated %v before the cutoff", d)
		}
	}

	if len(train.Names) != len(valid.Names) {
		t.Fatalf("column sets differ: %d vs %d", len(train.Names), len(valid.Names))
	}
	for i := range train.Names {
		if train.Names[i] != valid.Names[i] {
			t.Errorf("column %d differs: %q vs %q", i, train.Names[i], valid.Names[i])
		}
	}

	_, xCols := train.X.Dims()
	if xCols != len(train.Names) {
		t.Errorf("X has %d columns, names list %d", xCols, len(train.Names))
	}
	if train.Y.Len() != train.Rows() {
		t.Errorf("Y length %d, rows %d", train.Y.Len(), train.Rows())
	}
}

func TestSplitEmptySides(t *testing.T) {
	f := assembledFrame(t, 10)

	for _, tt := range []struct {
		name   string
		cutoff time.Time
	}{
		{"everything after cutoff", time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"everything before cutoff", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Split(f, tt.cutoff)
			if err == nil {
				t.Fatal("Split() expected error")
			}
			var cfg *errors.ConfigError
			if !errors.As(err, &cfg) {
				t.Errorf("error %v is not a ConfigError", err)
			}
		})
	}
}

func TestSplitRequiresSchema(t *testing.T) {
	f := NewFrame(makeTable(t, testStart, map[string][]float64{"m_1": constSeries(5, 1)}))
	if _, _, err := Split(f, testStart.AddDate(0, 0, 2)); err == nil {
		t.Error("Split() expected error on a frame without a schema")
	}
}

func TestDropMissing(t *testing.T) {
	f := assembledFrame(t, 30)
	train, _, err := Split(f, time.Date(2020, 6, 21, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}

	// Early rows carry missing lag features and must be filtered.
	clean := train.DropMissing()
	if clean.Rows() == 0 {
		t.Fatal("DropMissing() removed every row")
	}
	if clean.Rows() >= train.Rows() {
		t.Fatalf("DropMissing() kept %d of %d rows, expected warmup rows to go",
			clean.Rows(), train.Rows())
	}

	rows, cols := clean.X.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if math.IsNaN(clean.X.At(i, j)) {
				t.Fatalf("missing value survived at (%d, %d)", i, j)
			}
		}
	}
	if len(clean.Dates) != rows || len(clean.Merchants) != rows || len(clean.RowIDs) != rows {
		t.Error("row metadata out of step with the filtered matrix")
	}

	// Already-complete matrices come back unchanged.
	again := clean.DropMissing()
	if again.Rows() != clean.Rows() {
		t.Errorf("second DropMissing() changed row count: %d -> %d", again.Rows(), clean.Rows())
	}
}
