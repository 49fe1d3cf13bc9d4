package slam

import "math"

// MinDeterminantThreshold is the tolerance below which a 2x2 determinant is
// treated as singular. Exact-equality singularity tests are numerically
// fragile; anything this close to zero is rejected.
const MinDeterminantThreshold = 1e-12

// Mat2 is a 2x2 matrix in row-major order (m00, m01, m10, m11).
// Landmark filters are two-dimensional, so the handful of matrix operations
// they need are written out directly rather than going through a general
// linear-algebra package.
type Mat2 [4]float64

// Identity2 returns the 2x2 identity matrix.
func Identity2() Mat2 {
	return Mat2{1, 0, 0, 1}
}

// Det returns the determinant.
func (m Mat2) Det() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// Inverse returns the matrix inverse and true, or the zero matrix and false
// when the determinant is within MinDeterminantThreshold of zero.
func (m Mat2) Inverse() (Mat2, bool) {
	det := m.Det()
	if math.Abs(det) < MinDeterminantThreshold {
		return Mat2{}, false
	}
	return Mat2{
		m[3] / det, -m[1] / det,
		-m[2] / det, m[0] / det,
	}, true
}

// Mul returns the matrix product m * o.
func (m Mat2) Mul(o Mat2) Mat2 {
	return Mat2{
		m[0]*o[0] + m[1]*o[2], m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2], m[2]*o[1] + m[3]*o[3],
	}
}

// Transpose returns the matrix transpose.
func (m Mat2) Transpose() Mat2 {
	return Mat2{m[0], m[2], m[1], m[3]}
}

// Add returns the matrix sum m + o.
func (m Mat2) Add(o Mat2) Mat2 {
	return Mat2{m[0] + o[0], m[1] + o[1], m[2] + o[2], m[3] + o[3]}
}

// MulVec returns the matrix-vector product m * (x, y).
func (m Mat2) MulVec(x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y, m[2]*x + m[3]*y
}
