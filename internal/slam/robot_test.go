package slam

import (
	"math"
	"testing"
)

func TestMeasurementRoundTrip(t *testing.T) {
	robot := testRobot()
	pose := Pose{X: 1, Y: -2, Theta: math.Pi / 3}
	lm := Point{X: 4, Y: 2}

	obs := robot.Measurement(pose, lm)
	back := robot.InverseMeasurement(pose, obs)

	if math.Abs(back.X-lm.X) > 1e-12 || math.Abs(back.Y-lm.Y) > 1e-12 {
		t.Errorf("inverse(measurement) = %+v, want %+v", back, lm)
	}
}

func TestMeasurementJacobian(t *testing.T) {
	robot := testRobot()
	pose := Pose{}
	lm := Point{X: 3, Y: 4} // range 5

	j := robot.MeasurementJacobian(pose, lm)

	want := Mat2{
		3.0 / 5, 4.0 / 5,
		-4.0 / 25, 3.0 / 25,
	}
	for i := range j {
		if math.Abs(j[i]-want[i]) > 1e-12 {
			t.Errorf("jacobian[%d] = %v, want %v", i, j[i], want[i])
		}
	}

	// Numerical check against finite differences of the forward model.
	const h = 1e-7
	r0 := robot.Measurement(pose, lm)
	rx := robot.Measurement(pose, Point{X: lm.X + h, Y: lm.Y})
	ry := robot.Measurement(pose, Point{X: lm.X, Y: lm.Y + h})
	num := Mat2{
		(rx.Range - r0.Range) / h, (ry.Range - r0.Range) / h,
		(rx.Bearing - r0.Bearing) / h, (ry.Bearing - r0.Bearing) / h,
	}
	for i := range j {
		if math.Abs(j[i]-num[i]) > 1e-5 {
			t.Errorf("jacobian[%d] = %v, finite difference %v", i, j[i], num[i])
		}
	}
}

func TestMeasurementJacobian_CoincidentLandmark(t *testing.T) {
	robot := testRobot()
	j := robot.MeasurementJacobian(Pose{X: 1, Y: 1}, Point{X: 1, Y: 1})
	if j != (Mat2{}) {
		t.Errorf("jacobian at zero range = %v, want zero matrix", j)
	}
}

func TestNormalizeAngle(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi, math.Pi},
		{2 * math.Pi, 0},
		{-math.Pi / 2, -math.Pi / 2},
	}
	for _, tc := range cases {
		if got := NormalizeAngle(tc.in); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
