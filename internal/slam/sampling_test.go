package slam

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestGenCDF(t *testing.T) {
	total, cdf := GenCDF([]float64{1, 3, 6})
	if total != 10 {
		t.Errorf("total = %v, want 10", total)
	}
	want := []float64{1, 4, 10}
	for i, w := range want {
		if cdf[i] != w {
			t.Errorf("cdf[%d] = %v, want %v", i, cdf[i], w)
		}
	}
}

func TestGenCDF_Empty(t *testing.T) {
	total, cdf := GenCDF(nil)
	if total != 0 || len(cdf) != 0 {
		t.Errorf("GenCDF(nil) = (%v, %v), want (0, empty)", total, cdf)
	}
}

// checkSqrt verifies L*L^T reproduces cov within tolerance.
func checkSqrt(t *testing.T, cov *mat.SymDense, l *mat.Dense) {
	t.Helper()
	var prod mat.Dense
	prod.Mul(l, l.T())
	n := cov.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if diff := math.Abs(prod.At(i, j) - cov.At(i, j)); diff > 1e-9 {
				t.Errorf("(L*L^T)[%d,%d] = %v, want %v", i, j, prod.At(i, j), cov.At(i, j))
			}
		}
	}
}

func TestCovarianceSqrt_PositiveDefinite(t *testing.T) {
	cov := mat.NewSymDense(3, []float64{
		0.05, 0.01, 0,
		0.01, 0.05, 0,
		0, 0, 0.01,
	})

	l, eigenFallback := covarianceSqrt(cov)
	if eigenFallback {
		t.Error("eigendecomposition fallback taken for a positive-definite covariance")
	}
	checkSqrt(t, cov, l)
}

func TestCovarianceSqrt_SemidefiniteFallback(t *testing.T) {
	// Rank-deficient: the (x, y) block is singular, so the Cholesky
	// factorization fails and the eigendecomposition path must be taken.
	cov := mat.NewSymDense(3, []float64{
		1, 1, 0,
		1, 1, 0,
		0, 0, 0.01,
	})

	l, eigenFallback := covarianceSqrt(cov)
	if !eigenFallback {
		t.Error("expected eigendecomposition fallback for a semidefinite covariance")
	}
	checkSqrt(t, cov, l)
}
