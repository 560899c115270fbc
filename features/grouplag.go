package features

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/merchantcast/pkg/errors"
	"github.com/YuminosukeSato/merchantcast/pkg/parallel"
)

// GroupLag computes lag, rolling-mean and exponentially weighted mean
// features of the target series, strictly within each merchant's own
// history. A value never depends on another merchant's rows, and every
// family shifts the series so no feature can see the current or a future
// observation.
//
// Lag and rolling columns get independent Gaussian noise added per row so
// the model cannot memorize exact historical counts; EWM columns do not.
type GroupLag struct {
	Lags    []int     // lag offsets, days
	Windows []int     // rolling window sizes, days
	Alphas  []float64 // EWM smoothing factors
	EWMLags []int     // shift applied before each EWM pass

	NoiseScale float64 // sigma of the regularization noise; 0 disables it
	MinPeriods int     // non-missing observations required per rolling window
	Seed       uint64  // noise RNG seed

	// Horizon is the forecast horizon in days. Every lag offset must be at
	// least this large, otherwise a feature for a validation row would be
	// computed from values inside the validation window.
	Horizon int
}

// Validate checks the lag specification.
func (g *GroupLag) Validate() error {
	if len(g.Lags) == 0 && len(g.Windows) == 0 && len(g.Alphas) == 0 {
		return errors.NewConfigError("grouplag", "no feature families requested", nil)
	}
	seen := make(map[int]bool)
	for _, lag := range g.Lags {
		if lag <= 0 {
			return errors.NewConfigError("grouplag.lags", "lag offsets must be positive", lag)
		}
		if seen[lag] {
			return errors.NewConfigError("grouplag.lags", "duplicate lag offset", lag)
		}
		seen[lag] = true
		if g.Horizon > 0 && lag < g.Horizon {
			return errors.NewConfigError("grouplag.lags",
				"lag offset is inside the forecast horizon and would leak future values", lag)
		}
	}
	for _, w := range g.Windows {
		if w <= 0 {
			return errors.NewConfigError("grouplag.windows", "window sizes must be positive", w)
		}
	}
	for _, a := range g.Alphas {
		if a <= 0 || a > 1 {
			return errors.NewConfigError("grouplag.alphas", "smoothing factor must be in (0, 1]", a)
		}
	}
	// The EWM family is the cross product of alphas and lag offsets; one
	// side without the other would silently produce no columns.
	if len(g.Alphas) > 0 && len(g.EWMLags) == 0 {
		return errors.NewConfigError("grouplag.ewm_lags",
			"required when smoothing factors are set", nil)
	}
	if len(g.EWMLags) > 0 && len(g.Alphas) == 0 {
		return errors.NewConfigError("grouplag.alphas",
			"required when ewm lag offsets are set", nil)
	}
	for _, lag := range g.EWMLags {
		if lag <= 0 {
			return errors.NewConfigError("grouplag.ewm_lags", "lag offsets must be positive", lag)
		}
		if g.Horizon > 0 && lag < g.Horizon {
			return errors.NewConfigError("grouplag.ewm_lags",
				"lag offset is inside the forecast horizon and would leak future values", lag)
		}
	}
	if g.MinPeriods < 0 {
		return errors.NewConfigError("grouplag.min_periods", "must be non-negative", g.MinPeriods)
	}
	return nil
}

// Apply appends every requested feature column to the frame. The target
// must still be in count space. Merchants with fewer rows than a lag or
// window yield missing values, never an error.
func (g *GroupLag) Apply(f *Frame) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if f.TargetTransformed() {
		return errors.New("features: group-lag features must be computed on the raw target")
	}

	target := f.Target()
	groups := f.Groups()

	noise := distuv.Normal{Mu: 0, Sigma: g.NoiseScale, Src: rand.NewSource(g.Seed)}

	for _, lag := range g.Lags {
		col := newMissing(f.Len())
		lag := lag
		parallel.ForEach(len(groups), func(gi int) {
			grp := groups[gi]
			shiftInto(col[grp.Start:grp.End], target[grp.Start:grp.End], lag)
		})
		g.addNoise(col, &noise)
		if err := f.AddColumn(Descriptor{Family: FamilyLag, Lag: lag}.Name(), col); err != nil {
			return err
		}
	}

	for _, window := range g.Windows {
		col := newMissing(f.Len())
		window := window
		minPeriods := g.MinPeriods
		parallel.ForEach(len(groups), func(gi int) {
			grp := groups[gi]
			rollTriangularInto(col[grp.Start:grp.End], target[grp.Start:grp.End], window, minPeriods)
		})
		g.addNoise(col, &noise)
		if err := f.AddColumn(Descriptor{Family: FamilyRollMean, Window: window}.Name(), col); err != nil {
			return err
		}
	}

	for _, alpha := range g.Alphas {
		for _, lag := range g.EWMLags {
			col := newMissing(f.Len())
			alpha, lag := alpha, lag
			parallel.ForEach(len(groups), func(gi int) {
				grp := groups[gi]
				ewmInto(col[grp.Start:grp.End], target[grp.Start:grp.End], alpha, lag)
			})
			if err := f.AddColumn(Descriptor{Family: FamilyEWM, Alpha: alpha, Lag: lag}.Name(), col); err != nil {
				return err
			}
		}
	}

	return nil
}

// addNoise draws one sample per row, in row order, so a given seed always
// produces the same columns regardless of how the groups were scheduled.
func (g *GroupLag) addNoise(col []float64, noise *distuv.Normal) {
	if g.NoiseScale == 0 {
		return
	}
	for i := range col {
		col[i] += noise.Rand()
	}
}

func newMissing(n int) []float64 {
	col := make([]float64, n)
	for i := range col {
		col[i] = math.NaN()
	}
	return col
}

// shiftInto writes src shifted forward by lag: dst[i] = src[i-lag], with
// the first lag positions missing.
func shiftInto(dst, src []float64, lag int) {
	for i := lag; i < len(src); i++ {
		dst[i] = src[i-lag]
	}
}

// rollTriangularInto computes a triangular-weighted moving average over the
// trailing window of the shift-by-1 series. At least minPeriods non-missing
// observations must fall inside the window, otherwise the result is
// missing. Partial windows at the start of a series use a kernel sized to
// the observed span, renormalized over the values present.
func rollTriangularInto(dst, src []float64, window, minPeriods int) {
	weights := triangularWeights(window)

	for i := range dst {
		// Trailing window over the series shifted by one: source indices
		// [i-window, i-1], clipped at the series start.
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		span := i - lo
		if span == 0 {
			continue
		}

		w := weights
		if span < window {
			w = triangularWeights(span)
		}

		var sum, wsum float64
		count := 0
		for k := 0; k < span; k++ {
			v := src[lo+k]
			if math.IsNaN(v) {
				continue
			}
			sum += w[k] * v
			wsum += w[k]
			count++
		}
		if count < minPeriods || wsum == 0 {
			continue
		}
		dst[i] = sum / wsum
	}
}

// triangularWeights returns the symmetric triangular kernel of length n,
// linearly increasing to a peak at the window center.
func triangularWeights(n int) []float64 {
	w := make([]float64, n)
	if n%2 == 1 {
		for k := 0; k <= n/2; k++ {
			w[k] = 2 * float64(k+1) / float64(n+1)
			w[n-1-k] = w[k]
		}
	} else {
		for k := 0; k < n/2; k++ {
			w[k] = (2*float64(k) + 1) / float64(n)
			w[n-1-k] = w[k]
		}
	}
	return w
}

// ewmInto computes the exponentially weighted mean of the series shifted by
// lag. The weight of an observation j periods back is proportional to
// (1-alpha)^j, normalized over the weights actually observed; missing
// values still age the accumulated weights so spacing is preserved.
func ewmInto(dst, src []float64, alpha float64, lag int) {
	decay := 1 - alpha
	var num, den float64
	for i := range dst {
		num *= decay
		den *= decay
		if i >= lag && !math.IsNaN(src[i-lag]) {
			num += src[i-lag]
			den += 1
		}
		if den > 0 {
			dst[i] = num / den
		}
	}
}
