package status

import (
	"math"

	"github.com/shopspring/decimal"
)

// SystemTotal is the number of jobs in the system on a 1-based day: arrivals
// plus the three station queues, rounded half away from zero. The same
// rounding is used for every column.
func (s *Snapshot) SystemTotal(day int) (float64, bool) {
	total := 0.0
	for _, name := range []string{SeriesJobIn, SeriesS1Q, SeriesS2Q, SeriesS3Q} {
		v, ok := s.Value(name, day)
		if !ok {
			return math.NaN(), false
		}
		total += v
	}
	return math.Round(total), true
}

// DayRevenue is jobs completed times revenue per job on a 1-based day. Both
// operands are converted to their shortest decimal form and multiplied in
// decimal, so 0.1 x 0.2 is 0.02 rather than the binary float product. The
// result is not rounded.
func (s *Snapshot) DayRevenue(day int) (float64, bool) {
	out, ok := s.Value(SeriesJobOut, day)
	if !ok {
		return math.NaN(), false
	}
	rev, ok := s.Value(SeriesJobRev, day)
	if !ok {
		return math.NaN(), false
	}
	product, _ := decimal.NewFromFloat(out).Mul(decimal.NewFromFloat(rev)).Float64()
	return product, true
}

// SystemTotalTrend returns SystemTotal for days 1..n, where n is Day capped
// at the shortest operand series. NaN marks a day that cannot be computed.
func (s *Snapshot) SystemTotalTrend() []float64 {
	return s.derivedTrend(s.SystemTotal, SeriesJobIn, SeriesS1Q, SeriesS2Q, SeriesS3Q)
}

// RevenueTrend returns DayRevenue for days 1..n, where n is Day capped at the
// shorter of JOBOUT and JOBREV.
func (s *Snapshot) RevenueTrend() []float64 {
	return s.derivedTrend(s.DayRevenue, SeriesJobOut, SeriesJobRev)
}

func (s *Snapshot) derivedTrend(fn func(int) (float64, bool), operands ...string) []float64 {
	if s == nil || s.Day <= 0 {
		return nil
	}
	n := s.Day
	for _, name := range operands {
		values, _ := s.Series(name)
		n = min(n, len(values))
	}
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i], _ = fn(i + 1)
	}
	return out
}
