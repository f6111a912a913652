package engine

import (
	"math"

	"github.com/cockroachdb/apd/v3"
)

// decimalContext is shared by every accumulator. 34 digits is decimal128.
var decimalContext = apd.BaseContext.WithPrecision(34)

// accumulator sums float64 values in decimal so that 0.1 + 0.2 == 0.3.
type accumulator struct {
	total apd.Decimal
	n     int
}

func (a *accumulator) add(f float64) {
	var d apd.Decimal
	if _, err := d.SetFloat64(f); err != nil {
		return
	}
	decimalContext.Add(&a.total, &a.total, &d)
	a.n++
}

func (a *accumulator) sum() float64 {
	return toFloat(&a.total)
}

// mean returns 0 for an empty accumulator.
func (a *accumulator) mean() float64 {
	if a.n == 0 {
		return 0
	}
	var count, quo apd.Decimal
	count.SetInt64(int64(a.n))
	decimalContext.Quo(&quo, &a.total, &count)
	return toFloat(&quo)
}

func toFloat(d *apd.Decimal) float64 {
	f, err := d.Float64()
	if err != nil {
		return math.NaN()
	}
	return f
}
