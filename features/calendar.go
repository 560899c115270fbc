package features

import (
	"github.com/YuminosukeSato/merchantcast/pkg/errors"
)

// Calendar feature column names.
const (
	ColMonth          = "month"
	ColDayOfMonth     = "day_of_month"
	ColDayOfYear      = "day_of_year"
	ColWeekOfYear     = "week_of_year"
	ColDayOfWeek      = "day_of_week"
	ColYear           = "year"
	ColIsWeekend      = "is_wknd"
	ColIsMonthStart   = "is_month_start"
	ColIsMonthEnd     = "is_month_end"
	ColQuarter        = "quarter"
	ColIsQuarterStart = "is_quarter_start"
	ColIsQuarterEnd   = "is_quarter_end"
	ColIsYearStart    = "is_year_start"
	ColIsYearEnd      = "is_year_end"
)

// BuildCalendar derives the calendar attribute columns from the frame's
// timestamps. It is a pure function of the dates and fails only on a
// missing timestamp.
//
// day_of_week is 0-based starting from Monday. is_wknd is day_of_week
// integer-divided by 4, which marks Friday, Saturday and Sunday; the
// formula is kept as the business side defined it even though a literal
// weekend would be Saturday and Sunday only.
func BuildCalendar(f *Frame) error {
	n := f.Len()
	month := make([]float64, n)
	dayOfMonth := make([]float64, n)
	dayOfYear := make([]float64, n)
	weekOfYear := make([]float64, n)
	dayOfWeek := make([]float64, n)
	year := make([]float64, n)
	isWeekend := make([]float64, n)
	isMonthStart := make([]float64, n)
	isMonthEnd := make([]float64, n)
	quarter := make([]float64, n)
	isQuarterStart := make([]float64, n)
	isQuarterEnd := make([]float64, n)
	isYearStart := make([]float64, n)
	isYearEnd := make([]float64, n)

	for i, d := range f.Dates() {
		if d.IsZero() {
			return errors.NewInvalidInputError("features.BuildCalendar", "transaction_date", "missing timestamp")
		}

		m := int(d.Month())
		day := d.Day()
		dow := (int(d.Weekday()) + 6) % 7 // 0 = Monday
		_, isoWeek := d.ISOWeek()
		next := d.AddDate(0, 0, 1)
		q := (m-1)/3 + 1

		month[i] = float64(m)
		dayOfMonth[i] = float64(day)
		dayOfYear[i] = float64(d.YearDay())
		weekOfYear[i] = float64(isoWeek)
		dayOfWeek[i] = float64(dow)
		year[i] = float64(d.Year())
		isWeekend[i] = float64(dow / 4)
		isMonthStart[i] = boolToFloat(day == 1)
		isMonthEnd[i] = boolToFloat(next.Day() == 1)
		quarter[i] = float64(q)
		isQuarterStart[i] = boolToFloat(day == 1 && m%3 == 1)
		isQuarterEnd[i] = boolToFloat(next.Day() == 1 && m%3 == 0)
		isYearStart[i] = boolToFloat(d.YearDay() == 1)
		isYearEnd[i] = boolToFloat(m == 12 && day == 31)
	}

	for _, c := range []Column{
		{ColMonth, month},
		{ColDayOfMonth, dayOfMonth},
		{ColDayOfYear, dayOfYear},
		{ColWeekOfYear, weekOfYear},
		{ColDayOfWeek, dayOfWeek},
		{ColYear, year},
		{ColIsWeekend, isWeekend},
		{ColIsMonthStart, isMonthStart},
		{ColIsMonthEnd, isMonthEnd},
		{ColQuarter, quarter},
		{ColIsQuarterStart, isQuarterStart},
		{ColIsQuarterEnd, isQuarterEnd},
		{ColIsYearStart, isYearStart},
		{ColIsYearEnd, isYearEnd},
	} {
		if err := f.AddColumn(c.Name, c.Values); err != nil {
			return err
		}
	}
	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
