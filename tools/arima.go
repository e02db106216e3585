package tools

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// arima111 is an ARIMA(1,1,1) model without drift:
//
//	d[t] = phi*d[t-1] + e[t] + theta*e[t-1],  d[t] = y[t] - y[t-1]
type arima111 struct {
	phi, theta float64
	levels     []float64
	diffs      []float64
	residuals  []float64
}

// maxCoef keeps both coefficients strictly inside the unit interval so the
// fitted model stays stationary and invertible.
const maxCoef = 0.99

func constrain(x float64) float64 {
	return maxCoef * math.Tanh(x)
}

// cssResiduals runs the model over the differenced series with e[0] = 0 and
// returns the one-step residuals.
func cssResiduals(d []float64, phi, theta float64, out []float64) []float64 {
	out = out[:0]
	prevE := 0.0
	for t := 1; t < len(d); t++ {
		e := d[t] - phi*d[t-1] - theta*prevE
		out = append(out, e)
		prevE = e
	}
	return out
}

// fitARIMA111 estimates phi and theta by conditional sum of squares.
func fitARIMA111(levels []float64) (*arima111, error) {
	if len(levels) < 3 {
		return nil, errors.New("series too short to fit")
	}
	for _, v := range levels {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New("series contains non-finite values")
		}
	}
	d := make([]float64, len(levels)-1)
	for i := 1; i < len(levels); i++ {
		d[i-1] = levels[i] - levels[i-1]
	}

	buf := make([]float64, 0, len(d))
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			res := cssResiduals(d, constrain(x[0]), constrain(x[1]), buf)
			sum := 0.0
			for _, e := range res {
				sum += e * e
			}
			return sum
		},
	}
	result, err := optimize.Minimize(problem, []float64{0.1, 0.1}, nil, &optimize.NelderMead{})
	if err != nil && result == nil {
		return nil, fmt.Errorf("optimize coefficients: %w", err)
	}
	if result == nil || len(result.X) != 2 {
		return nil, errors.New("optimizer returned no solution")
	}

	m := &arima111{
		phi:    constrain(result.X[0]),
		theta:  constrain(result.X[1]),
		levels: levels,
		diffs:  d,
	}
	m.residuals = cssResiduals(d, m.phi, m.theta, nil)
	return m, nil
}

// forecast returns the next steps levels.
func (m *arima111) forecast(steps int) []float64 {
	out := make([]float64, steps)
	lastLevel := m.levels[len(m.levels)-1]
	lastDiff := m.diffs[len(m.diffs)-1]
	lastE := 0.0
	if len(m.residuals) > 0 {
		lastE = m.residuals[len(m.residuals)-1]
	}
	for h := 0; h < steps; h++ {
		next := m.phi * lastDiff
		if h == 0 {
			next += m.theta * lastE
		}
		lastLevel += next
		lastDiff = next
		out[h] = lastLevel
	}
	return out
}
