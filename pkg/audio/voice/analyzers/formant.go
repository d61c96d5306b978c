package analyzers

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/speech-trainer/pkg/audio/common"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/config"
)

// Candidates this close to 0 Hz or to the ceiling are discarded
const formantSafetyMargin = 50.0

// Formant is one vocal tract resonance
type Formant struct {
	Frequency float64 `json:"frequency"`
	Bandwidth float64 `json:"bandwidth"`
}

// FormantFrame holds the formants found in one analysis frame, lowest first
type FormantFrame struct {
	Time     float64   `json:"time"`
	Formants []Formant `json:"formants"`
}

// FormantTrack is a sequence of formant frames at a fixed step
type FormantTrack struct {
	Frames     []FormantFrame `json:"frames"`
	TimeStep   float64        `json:"time_step"`
	MaxFormant float64        `json:"max_formant"`
}

func (f FormantFrame) value(number int) (float64, bool) {
	if number < 1 || number > len(f.Formants) {
		return 0, false
	}
	return f.Formants[number-1].Frequency, true
}

// ValueAt returns formant `number` (1-based) at time t with linear
// interpolation. Undefined when a neighbouring frame lacks that formant.
func (ft *FormantTrack) ValueAt(number int, t float64) (float64, bool) {
	n := len(ft.Frames)
	if n == 0 || ft.TimeStep <= 0 {
		return 0, false
	}

	first := ft.Frames[0].Time
	last := ft.Frames[n-1].Time
	switch {
	case t < first:
		if first-t > ft.TimeStep/2 {
			return 0, false
		}
		return ft.Frames[0].value(number)
	case t > last:
		if t-last > ft.TimeStep/2 {
			return 0, false
		}
		return ft.Frames[n-1].value(number)
	}

	pos := (t - first) / ft.TimeStep
	left := min(int(math.Floor(pos)), n-1)
	if left == n-1 {
		return ft.Frames[left].value(number)
	}

	a, okA := ft.Frames[left].value(number)
	b, okB := ft.Frames[left+1].value(number)
	if !okA || !okB {
		return 0, false
	}
	frac := pos - float64(left)
	return a + frac*(b-a), true
}

// FormantAnalyzer estimates formants with Burg linear prediction
type FormantAnalyzer struct {
	config config.FormantConfig
}

// NewFormantAnalyzer creates a new formant analyzer
func NewFormantAnalyzer(cfg config.FormantConfig) *FormantAnalyzer {
	return &FormantAnalyzer{config: cfg}
}

// Analyze tracks formants below maxFormant Hz
func (fa *FormantAnalyzer) Analyze(ctx context.Context, x []float64, sampleRate int, maxFormant float64) (*FormantTrack, error) {
	if sampleRate <= 0 || maxFormant <= 0 || fa.config.MaxFormants <= 0 {
		return nil, common.NewAnalysisError("formant", common.ErrCodeInvalidInput,
			fmt.Sprintf("invalid formant parameters (sample rate %d, max formant %.0f)", sampleRate, maxFormant), nil)
	}

	// Analyse at twice the ceiling so the LPC poles cover 0..maxFormant
	sr := float64(sampleRate)
	targetRate := 2 * maxFormant
	y := resample(x, sr, targetRate)
	if targetRate < sr {
		sr = targetRate
	}

	if fa.config.PreEmphasisFrom > 0 {
		alpha := math.Exp(-2 * math.Pi * fa.config.PreEmphasisFrom / sr)
		for i := len(y) - 1; i > 0; i-- {
			y[i] -= alpha * y[i-1]
		}
	}

	// The physical window is twice the effective window length
	windowLen := int(math.Round(2 * fa.config.WindowLength * sr))
	hop := max(1, int(math.Round(fa.config.TimeStep*sr)))
	order := 2 * fa.config.MaxFormants

	track := &FormantTrack{TimeStep: float64(hop) / sr, MaxFormant: maxFormant}
	if windowLen <= order+1 || windowLen > len(y) {
		return track, nil
	}

	win := hammingWindow(windowLen)
	frame := make([]float64, windowLen)
	ceiling := math.Min(maxFormant, sr/2) - formantSafetyMargin

	for start, i := 0, 0; start+windowLen <= len(y); start, i = start+hop, i+1 {
		if i%128 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, common.NewAnalysisError("formant", common.ErrCodeTimeout, "formant analysis interrupted", err)
			}
		}

		for j := range windowLen {
			frame[j] = y[start+j] * win[j]
		}

		ff := FormantFrame{Time: (float64(start) + float64(windowLen)/2) / sr}
		if coeffs, ok := burg(frame, order); ok {
			ff.Formants = formantsFromLPC(coeffs, sr, ceiling, fa.config.MaxFormants)
		}
		track.Frames = append(track.Frames, ff)
	}

	return track, nil
}

// burg estimates `order` linear prediction coefficients d such that
// x[n] ~ sum_k d[k] x[n-1-k]
func burg(x []float64, order int) ([]float64, bool) {
	n := len(x)
	if n <= order+1 {
		return nil, false
	}

	var power float64
	for _, v := range x {
		power += v * v
	}
	if power == 0 {
		return nil, false
	}

	wk1 := make([]float64, n)
	wk2 := make([]float64, n)
	wkm := make([]float64, order)
	d := make([]float64, order)

	wk1[0] = x[0]
	wk2[n-2] = x[n-1]
	for j := 1; j <= n-2; j++ {
		wk1[j] = x[j]
		wk2[j-1] = x[j]
	}

	for k := 1; k <= order; k++ {
		var num, denom float64
		for j := 0; j <= n-k-1; j++ {
			num += wk1[j] * wk2[j]
			denom += wk1[j]*wk1[j] + wk2[j]*wk2[j]
		}
		if denom == 0 {
			return nil, false
		}

		d[k-1] = 2 * num / denom
		for i := 1; i <= k-1; i++ {
			d[i-1] = wkm[i-1] - d[k-1]*wkm[k-i-1]
		}
		if k == order {
			break
		}

		for i := 1; i <= k; i++ {
			wkm[i-1] = d[i-1]
		}
		for j := 0; j <= n-k-2; j++ {
			wk1[j] -= wkm[k-1] * wk2[j]
			wk2[j] = wk2[j+1] - wkm[k-1]*wk1[j+1]
		}
	}

	for _, v := range d {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
	}
	return d, true
}

// polynomialRoots returns the roots of z^p - c[0] z^(p-1) - ... - c[p-1]
// as eigenvalues of its companion matrix
func polynomialRoots(c []float64) ([]complex128, bool) {
	p := len(c)
	if p == 0 {
		return nil, false
	}

	companion := mat.NewDense(p, p, nil)
	for j := range p {
		companion.Set(0, j, c[j])
	}
	for i := 1; i < p; i++ {
		companion.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return nil, false
	}
	return eig.Values(nil), true
}

// formantsFromLPC converts prediction coefficients into sorted formants
func formantsFromLPC(coeffs []float64, sr, ceiling float64, maxFormants int) []Formant {
	roots, ok := polynomialRoots(coeffs)
	if !ok {
		return nil
	}

	var out []Formant
	for _, z := range roots {
		if imag(z) <= 0 {
			continue
		}
		// Reflect unstable poles into the unit circle
		if r := cmplx.Abs(z); r > 1 {
			z = 1 / cmplx.Conj(z)
		}
		freq := cmplx.Phase(z) * sr / (2 * math.Pi)
		if freq < formantSafetyMargin || freq > ceiling {
			continue
		}
		bw := -math.Log(cmplx.Abs(z)) * sr / math.Pi
		out = append(out, Formant{Frequency: freq, Bandwidth: bw})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Frequency < out[j].Frequency })
	if len(out) > maxFormants {
		out = out[:maxFormants]
	}
	return out
}
