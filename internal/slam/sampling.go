package slam

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// GenCDF builds a cumulative table from a weight vector and returns the total
// weight alongside it. The table is monotonically non-decreasing and its last
// entry equals the total.
func GenCDF(weights []float64) (float64, []float64) {
	cdf := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		total += w
		cdf[i] = total
	}
	return total, cdf
}

// covarianceSqrt returns a matrix L with L*L^T equal to cov, for use in
// multivariate Gaussian sampling. It tries a Cholesky factorization first,
// which is cheap but only valid for strictly positive-definite covariance,
// and falls back to an eigendecomposition-based square root for
// positive-semidefinite or numerically borderline input. The second return
// reports whether the fallback was taken.
func covarianceSqrt(cov *mat.SymDense) (*mat.Dense, bool) {
	var chol mat.Cholesky
	if chol.Factorize(cov) {
		var l mat.TriDense
		chol.LTo(&l)
		return mat.DenseCopyOf(&l), false
	}

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		// Eigendecomposition of a symmetric matrix should not fail; treat
		// the covariance as zero so sampling degenerates to the mean.
		n := cov.SymmetricDim()
		return mat.NewDense(n, n, nil), true
	}

	n := cov.SymmetricDim()
	vals := eig.Values(nil)
	for i, v := range vals {
		if v < 0 {
			v = 0
		}
		vals[i] = math.Sqrt(v)
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	var l mat.Dense
	l.Mul(&vecs, mat.NewDiagDense(n, vals))
	return &l, true
}
