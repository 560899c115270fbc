package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewInvalidInputError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		column  string
		reason  string
		wantMsg string
	}{
		{
			name:    "with column",
			op:      "dataset.ReadCSV",
			column:  "transaction_date",
			reason:  "malformed timestamp",
			wantMsg: `merchantcast: dataset.ReadCSV: invalid input in column "transaction_date": malformed timestamp`,
		},
		{
			name:    "without column",
			op:      "features.BuildCalendar",
			reason:  "missing timestamp",
			wantMsg: "merchantcast: features.BuildCalendar: invalid input: missing timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewInvalidInputError(tt.op, tt.column, tt.reason)

			// 基本的なエラーメッセージの確認
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			// InvalidInputError型にキャスト可能か確認
			var invalidErr *InvalidInputError
			if !As(err, &invalidErr) {
				t.Error("Error should be castable to *InvalidInputError")
			}
		})
	}
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("cutoff", "training set would be empty", "2020-10-01")

	want := `merchantcast: configuration error for "cutoff": training set would be empty (got: 2020-10-01)`
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var cfgErr *ConfigError
	if !As(err, &cfgErr) {
		t.Error("Error should be castable to *ConfigError")
	}
	if cfgErr.Param != "cutoff" {
		t.Errorf("Param = %v, want cutoff", cfgErr.Param)
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Frame.AddColumn", 730, 365)

	want := "merchantcast: Frame.AddColumn: dimension mismatch. Expected 730, got 365"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("Forecaster", "Predict")

	want := "merchantcast: Forecaster: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestWrapPreservesType(t *testing.T) {
	err := Wrap(NewInvalidInputError("dataset.ReadCSV", "Total_Transaction", "negative transaction count"), "loading export")

	// ラップ後も元の型にキャスト可能であることを確認
	var invalidErr *InvalidInputError
	if !As(err, &invalidErr) {
		t.Error("Wrapped error should still be castable to *InvalidInputError")
	}
	if !strings.Contains(err.Error(), "loading export") {
		t.Errorf("Error() = %v, want wrap message included", err.Error())
	}
}

func TestErrEmptyData(t *testing.T) {
	err := Wrap(ErrEmptyData, "dataset.NewTable")
	if !Is(err, ErrEmptyData) {
		t.Error("Wrapped ErrEmptyData should still match with Is()")
	}
}
