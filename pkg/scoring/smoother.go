package scoring

import "math"

// DefaultAlpha is the half-width of the acceptance band in standard deviations
const DefaultAlpha = 1.0

// Baseline holds the running statistics of one session's raw scores
type Baseline struct {
	Previous float64 `json:"previous"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Count    int     `json:"count"`
	M2       float64 `json:"m2"`
}

// NewBaseline starts an empty baseline whose previous score is start
func NewBaseline(start float64) Baseline {
	return Baseline{Previous: start}
}

// Smoother re-anchors raw scores that fall outside the session's running
// distribution. Once history exists, an outlying score is read as a delta
// from the running mean and applied to the previous adjusted score. This
// can invert the direction of a real improvement and is kept as is.
type Smoother struct {
	Alpha float64
}

// NewSmoother creates a smoother; a non-positive alpha selects DefaultAlpha
func NewSmoother(alpha float64) *Smoother {
	if alpha <= 0 {
		alpha = DefaultAlpha
	}
	return &Smoother{Alpha: alpha}
}

// Adjust maps a raw score to an adjusted score. A zero mean passes the raw
// score through.
func (s *Smoother) Adjust(raw float64, b Baseline) float64 {
	if b.Mean == 0 {
		return raw
	}
	lower := b.Mean - s.Alpha*b.StdDev
	upper := b.Mean + s.Alpha*b.StdDev
	if raw < lower || raw > upper {
		return b.Previous + (raw - b.Mean)
	}
	return raw
}

// Update folds raw into the running statistics and records its adjusted
// score as the new previous score
func (s *Smoother) Update(b Baseline, raw float64) Baseline {
	_, next := s.Step(b, raw)
	return next
}

// Step adjusts raw against b and returns the adjusted score together with
// the updated baseline
func (s *Smoother) Step(b Baseline, raw float64) (float64, Baseline) {
	adjusted := s.Adjust(raw, b)

	next := b
	next.Count++
	delta := raw - next.Mean
	next.Mean += delta / float64(next.Count)
	next.M2 += delta * (raw - next.Mean)
	next.StdDev = math.Sqrt(next.M2 / float64(next.Count))
	next.Previous = adjusted

	return adjusted, next
}
