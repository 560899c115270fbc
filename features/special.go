package features

import (
	"time"
)

// Special-date indicator column names.
const (
	ColIsBlackFriday    = "is_black_friday"
	ColIsSummerSolstice = "is_summer_solstice"
)

// SpecialDates describes the fixed-calendar indicators appended during
// assembly: an exact promotional date set and a yearly window around the
// summer solstice.
type SpecialDates struct {
	Promo []time.Time // exact promotional dates (Black Friday and the day after)

	SolsticeMonth  time.Month
	SolsticeDay    int
	SolsticeWindow int // days on each side, inclusive
}

// DefaultSpecialDates returns the processor's promotional calendar for the
// 2018–2020 history window.
func DefaultSpecialDates() SpecialDates {
	return SpecialDates{
		Promo: []time.Time{
			time.Date(2018, 11, 22, 0, 0, 0, 0, time.UTC),
			time.Date(2018, 11, 23, 0, 0, 0, 0, time.UTC),
			time.Date(2019, 11, 29, 0, 0, 0, 0, time.UTC),
			time.Date(2019, 11, 30, 0, 0, 0, 0, time.UTC),
		},
		SolsticeMonth:  time.June,
		SolsticeDay:    21,
		SolsticeWindow: 3,
	}
}

// Build appends the promotional and solstice indicator columns.
func (s SpecialDates) Build(f *Frame) error {
	promo := make(map[time.Time]bool, len(s.Promo))
	for _, d := range s.Promo {
		promo[d.UTC().Truncate(24*time.Hour)] = true
	}

	blackFriday := make([]float64, f.Len())
	solstice := make([]float64, f.Len())
	for i, d := range f.Dates() {
		if promo[d.UTC().Truncate(24*time.Hour)] {
			blackFriday[i] = 1
		}
		if s.inSolsticeWindow(d) {
			solstice[i] = 1
		}
	}

	if err := f.AddColumn(ColIsBlackFriday, blackFriday); err != nil {
		return err
	}
	return f.AddColumn(ColIsSummerSolstice, solstice)
}

// inSolsticeWindow reports whether d falls within the solstice window of
// its own year, endpoints included.
func (s SpecialDates) inSolsticeWindow(d time.Time) bool {
	if s.SolsticeDay == 0 {
		return false
	}
	solstice := time.Date(d.Year(), s.SolsticeMonth, s.SolsticeDay, 0, 0, 0, 0, time.UTC)
	diff := d.Sub(solstice).Hours() / 24
	return diff >= -float64(s.SolsticeWindow) && diff <= float64(s.SolsticeWindow)
}
