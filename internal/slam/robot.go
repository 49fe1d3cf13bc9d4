package slam

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// RobotModel describes the robot's motion and sensor characteristics. It is
// shared read-only across every particle and every landmark filter: the pose
// is always an explicit argument and implementations must not carry mutable
// per-call state, so particle updates can safely run concurrently.
type RobotModel interface {
	// InverseMeasurement converts an observation taken at the given pose
	// into a world-frame landmark position.
	InverseMeasurement(pose Pose, obs Observation) Point
	// Measurement predicts the observation of a landmark from the given pose.
	Measurement(pose Pose, lm Point) Observation
	// MeasurementJacobian evaluates the Jacobian of the measurement
	// function with respect to the landmark position.
	MeasurementJacobian(pose Pose, lm Point) Mat2
	// MeasurementNoise returns the sensor noise covariance R.
	MeasurementNoise() Mat2
	// ProcessNoise returns the 3x3 motion noise covariance over (x, y, theta).
	ProcessNoise() *mat.SymDense
	// PerceptualRange returns the maximum range at which the sensor can
	// detect a landmark.
	PerceptualRange() float64
}

// RangeBearingConfig holds noise and sensor parameters for a range/bearing robot.
type RangeBearingConfig struct {
	RangeVariance   float64    // Sensor range noise (sigma^2, meters^2)
	BearingVariance float64    // Sensor bearing noise (sigma^2, radians^2)
	ProcessNoise    [3]float64 // Motion noise diagonal over (x, y, theta)
	MaxRange        float64    // Perceptual range (meters)
}

// DefaultRangeBearingConfig returns default sensor parameters.
func DefaultRangeBearingConfig() RangeBearingConfig {
	return RangeBearingConfig{
		RangeVariance:   0.01,
		BearingVariance: 0.0025,
		ProcessNoise:    [3]float64{0.05, 0.05, 0.01},
		MaxRange:        15.0,
	}
}

// RangeBearingRobot is a RobotModel for a planar robot with a range/bearing
// landmark sensor. All state is fixed at construction.
type RangeBearingRobot struct {
	cfg          RangeBearingConfig
	processNoise *mat.SymDense
}

// NewRangeBearingRobot creates a robot model from the given configuration.
func NewRangeBearingRobot(cfg RangeBearingConfig) *RangeBearingRobot {
	q := mat.NewSymDense(3, nil)
	for i, v := range cfg.ProcessNoise {
		q.SetSym(i, i, v)
	}
	return &RangeBearingRobot{cfg: cfg, processNoise: q}
}

// Measurement predicts the range/bearing observation of lm from pose.
func (r *RangeBearingRobot) Measurement(pose Pose, lm Point) Observation {
	dx := lm.X - pose.X
	dy := lm.Y - pose.Y
	return Observation{
		Range:   math.Hypot(dx, dy),
		Bearing: NormalizeAngle(math.Atan2(dy, dx) - pose.Theta),
	}
}

// InverseMeasurement projects an observation from pose into a world-frame point.
func (r *RangeBearingRobot) InverseMeasurement(pose Pose, obs Observation) Point {
	heading := pose.Theta + obs.Bearing
	return Point{
		X: pose.X + obs.Range*math.Cos(heading),
		Y: pose.Y + obs.Range*math.Sin(heading),
	}
}

// MeasurementJacobian evaluates d(range, bearing)/d(lm.X, lm.Y) at lm.
// A landmark coincident with the pose yields the zero matrix; callers fall
// back to an identity covariance when the Jacobian is singular.
func (r *RangeBearingRobot) MeasurementJacobian(pose Pose, lm Point) Mat2 {
	dx := lm.X - pose.X
	dy := lm.Y - pose.Y
	d2 := dx*dx + dy*dy
	d := math.Sqrt(d2)
	if d < MinDeterminantThreshold {
		return Mat2{}
	}
	return Mat2{
		dx / d, dy / d,
		-dy / d2, dx / d2,
	}
}

// MeasurementNoise returns the diagonal sensor noise covariance.
func (r *RangeBearingRobot) MeasurementNoise() Mat2 {
	return Mat2{r.cfg.RangeVariance, 0, 0, r.cfg.BearingVariance}
}

// ProcessNoise returns the motion noise covariance over (x, y, theta).
func (r *RangeBearingRobot) ProcessNoise() *mat.SymDense {
	return r.processNoise
}

// PerceptualRange returns the sensor's maximum detection range.
func (r *RangeBearingRobot) PerceptualRange() float64 {
	return r.cfg.MaxRange
}

// NormalizeAngle wraps an angle in radians to (-pi, pi].
func NormalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
