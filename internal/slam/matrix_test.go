package slam

import (
	"math"
	"testing"
)

func TestMat2Inverse(t *testing.T) {
	m := Mat2{4, 7, 2, 6}
	inv, ok := m.Inverse()
	if !ok {
		t.Fatal("expected invertible matrix")
	}

	prod := m.Mul(inv)
	id := Identity2()
	for i := range prod {
		if math.Abs(prod[i]-id[i]) > 1e-12 {
			t.Errorf("m * m^-1 [%d] = %v, want %v", i, prod[i], id[i])
		}
	}
}

func TestMat2Inverse_Singular(t *testing.T) {
	cases := []Mat2{
		{},                     // zero matrix
		{1, 2, 2, 4},           // rank 1
		{1e-7, 0, 0, 1e-7},     // determinant below tolerance
	}
	for _, m := range cases {
		if _, ok := m.Inverse(); ok {
			t.Errorf("Inverse(%v) succeeded, want singular rejection", m)
		}
	}
}

func TestMat2Transpose(t *testing.T) {
	m := Mat2{1, 2, 3, 4}
	if got := m.Transpose(); got != (Mat2{1, 3, 2, 4}) {
		t.Errorf("Transpose = %v", got)
	}
}

func TestMat2MulVec(t *testing.T) {
	m := Mat2{1, 2, 3, 4}
	x, y := m.MulVec(5, 6)
	if x != 17 || y != 39 {
		t.Errorf("MulVec = (%v, %v), want (17, 39)", x, y)
	}
}
