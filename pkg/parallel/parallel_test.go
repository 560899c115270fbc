package parallel

import (
	"sync/atomic"
	"testing"
)

func TestForEachVisitsEveryIndexOnce(t *testing.T) {
	const n = 1000
	visits := make([]int32, n)

	ForEach(n, func(i int) {
		atomic.AddInt32(&visits[i], 1)
	})

	for i, v := range visits {
		if v != 1 {
			t.Errorf("index %d visited %d times, want 1", i, v)
		}
	}
}

func TestForEachZeroItems(t *testing.T) {
	called := false
	ForEach(0, func(i int) { called = true })
	if called {
		t.Error("fn called for zero items")
	}
}

func TestRangesCoverWithoutOverlap(t *testing.T) {
	for _, items := range []int{1, 2, 7, 64, 1000} {
		covered := make([]int32, items)
		Ranges(items, func(start, end int) {
			if start < 0 || end > items || start >= end {
				t.Errorf("items=%d: bad chunk [%d, %d)", items, start, end)
				return
			}
			for i := start; i < end; i++ {
				atomic.AddInt32(&covered[i], 1)
			}
		})
		for i, v := range covered {
			if v != 1 {
				t.Errorf("items=%d: index %d covered %d times", items, i, v)
			}
		}
	}
}

func TestRangesWithThreshold(t *testing.T) {
	var calls int32
	RangesWithThreshold(10, 100, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		if start != 0 || end != 10 {
			t.Errorf("sequential chunk = [%d, %d), want [0, 10)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("below threshold: %d calls, want 1", calls)
	}

	covered := make([]int32, 500)
	RangesWithThreshold(500, 100, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&covered[i], 1)
		}
	})
	for i, v := range covered {
		if v != 1 {
			t.Errorf("above threshold: index %d covered %d times", i, v)
		}
	}
}
