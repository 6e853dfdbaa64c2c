package nanoscope

import "fmt"

// Flatten removes a least-squares polynomial trend of the given order
// from one scan row, the standard correction for per-line scan drift.
// The fit is against sample index (0-based) versus sample value; the
// fitted value at each index is subtracted from the original sample.
// The input row is never mutated. Order 0 subtracts the row mean.
func Flatten(row []float64, order int) ([]float64, error) {
	if order < 0 {
		return nil, fmt.Errorf("nanoscope: negative polynomial order %d: %w", order, ErrInsufficientData)
	}
	if len(row) < order+1 {
		return nil, fmt.Errorf("nanoscope: %d samples cannot fit an order-%d polynomial: %w",
			len(row), order, ErrInsufficientData)
	}

	coeffs, err := polyfit(row, order)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(row))
	for i, v := range row {
		fitted := 0.0
		x := float64(i)
		for p := order; p >= 0; p-- {
			fitted = fitted*x + coeffs[p]
		}
		out[i] = v - fitted
	}
	return out, nil
}

// FlattenRow is Flatten over a decoded int16 grid row.
func FlattenRow(row []int16, order int) ([]float64, error) {
	f := make([]float64, len(row))
	for i, v := range row {
		f[i] = float64(v)
	}
	return Flatten(f, order)
}

// polyfit returns the coefficients c[0..order] (ascending powers) of the
// least-squares polynomial through (i, row[i]), solving the normal
// equations by Gaussian elimination with partial pivoting.
func polyfit(row []float64, order int) ([]float64, error) {
	n := order + 1

	// Power sums sum(x^k) for k = 0..2*order and moment sums sum(x^k * y).
	pow := make([]float64, 2*order+1)
	mom := make([]float64, n)
	for i, y := range row {
		x := float64(i)
		xp := 1.0
		for k := 0; k <= 2*order; k++ {
			pow[k] += xp
			if k < n {
				mom[k] += xp * y
			}
			xp *= x
		}
	}

	// Augmented normal matrix.
	m := make([][]float64, n)
	for r := 0; r < n; r++ {
		m[r] = make([]float64, n+1)
		for c := 0; c < n; c++ {
			m[r][c] = pow[r+c]
		}
		m[r][n] = mom[r]
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if abs(m[r][col]) > abs(m[pivot][col]) {
				pivot = r
			}
		}
		if m[pivot][col] == 0 {
			return nil, fmt.Errorf("nanoscope: degenerate fit for order %d: %w", order, ErrInsufficientData)
		}
		m[col], m[pivot] = m[pivot], m[col]
		for r := col + 1; r < n; r++ {
			f := m[r][col] / m[col][col]
			for c := col; c <= n; c++ {
				m[r][c] -= f * m[col][c]
			}
		}
	}

	coeffs := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		v := m[r][n]
		for c := r + 1; c < n; c++ {
			v -= m[r][c] * coeffs[c]
		}
		coeffs[r] = v / m[r][r]
	}
	return coeffs, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
