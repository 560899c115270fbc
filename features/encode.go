package features

import (
	"sort"
	"strconv"
)

// EncodeOneHot expands the categorical inputs, merchant id, day of week and
// month, into indicator columns. Each distinct category becomes one boolean
// column named from the category value; categories are ordered so the
// resulting column set is deterministic. The numeric source columns are
// removed once encoded, mirroring how a dummy-variable expansion replaces
// its source.
func EncodeOneHot(f *Frame) error {
	if err := encodeMerchants(f); err != nil {
		return err
	}
	for _, src := range []string{ColDayOfWeek, ColMonth} {
		if err := encodeNumeric(f, src); err != nil {
			return err
		}
	}
	return nil
}

func encodeMerchants(f *Frame) error {
	distinct := make(map[string]bool)
	for _, m := range f.Merchants() {
		distinct[m] = true
	}
	categories := make([]string, 0, len(distinct))
	for m := range distinct {
		categories = append(categories, m)
	}
	sort.Strings(categories)

	for _, cat := range categories {
		col := make([]float64, f.Len())
		for i, m := range f.Merchants() {
			if m == cat {
				col[i] = 1
			}
		}
		if err := f.AddColumn("merchant_id_"+cat, col); err != nil {
			return err
		}
	}
	return nil
}

func encodeNumeric(f *Frame, src string) error {
	values, ok := f.Column(src)
	if !ok {
		return nil
	}

	distinct := make(map[int]bool)
	for _, v := range values {
		distinct[int(v)] = true
	}
	categories := make([]int, 0, len(distinct))
	for v := range distinct {
		categories = append(categories, v)
	}
	sort.Ints(categories)

	for _, cat := range categories {
		col := make([]float64, f.Len())
		for i, v := range values {
			if int(v) == cat {
				col[i] = 1
			}
		}
		if err := f.AddColumn(src+"_"+strconv.Itoa(cat), col); err != nil {
			return err
		}
	}

	f.dropColumn(src)
	return nil
}
