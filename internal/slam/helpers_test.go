package slam

import (
	"gonum.org/v1/gonum/mat"
)

// fakeRobot is a hand-written RobotModel stub with fixed return values, used
// to force specific branches (singular Jacobians, zero noise) in tests.
type fakeRobot struct {
	jacobian   Mat2
	noise      Mat2
	inverse    Point
	perceptual float64
}

func (r *fakeRobot) InverseMeasurement(pose Pose, obs Observation) Point { return r.inverse }

func (r *fakeRobot) Measurement(pose Pose, lm Point) Observation { return Observation{} }

func (r *fakeRobot) MeasurementJacobian(pose Pose, lm Point) Mat2 { return r.jacobian }

func (r *fakeRobot) MeasurementNoise() Mat2 { return r.noise }

func (r *fakeRobot) ProcessNoise() *mat.SymDense {
	return mat.NewSymDense(3, []float64{
		1e-6, 0, 0,
		0, 1e-6, 0,
		0, 0, 1e-6,
	})
}

func (r *fakeRobot) PerceptualRange() float64 { return r.perceptual }
