package slam

import (
	"math"
)

// LandmarkEKF is a two-dimensional extended Kalman filter over a single
// landmark position, conditioned on one particle's trajectory hypothesis.
// Each instance is exclusively owned by exactly one particle; ownership is
// preserved by cloning the whole bank during resampling.
type LandmarkEKF struct {
	mean Point
	cov  Mat2

	robot RobotModel

	// Pending measurement and the pose hypothesis it was taken from,
	// staged by UpdateObservation and consumed by CPD and Update.
	obs     Observation
	obsPose Pose
	hasObs  bool
}

// NewLandmarkEKF creates a landmark filter with the given initial belief.
func NewLandmarkEKF(mean Point, cov Mat2, robot RobotModel) *LandmarkEKF {
	return &LandmarkEKF{mean: mean, cov: cov, robot: robot}
}

// UpdateObservation buffers a measurement and the pose it was observed from.
// The buffered pair is used by both CPD and Update.
func (f *LandmarkEKF) UpdateObservation(pose Pose, obs Observation) {
	f.obs = obs
	f.obsPose = pose
	f.hasObs = true
}

// innovation returns the residual between the buffered observation and the
// predicted observation of the current mean, with the bearing wrapped.
func (f *LandmarkEKF) innovation() (float64, float64) {
	pred := f.robot.Measurement(f.obsPose, f.mean)
	return f.obs.Range - pred.Range, NormalizeAngle(f.obs.Bearing - pred.Bearing)
}

// CPD returns the correspondence likelihood of the buffered observation under
// the current belief: the normalized Gaussian density of the innovation with
// covariance S = H*P*H^T + R. Returns 0 when no likelihood can be computed
// (missing robot model, missing observation, or singular S).
func (f *LandmarkEKF) CPD() float64 {
	if f.robot == nil || !f.hasObs {
		return 0
	}
	h := f.robot.MeasurementJacobian(f.obsPose, f.mean)
	s := h.Mul(f.cov).Mul(h.Transpose()).Add(f.robot.MeasurementNoise())
	sInv, ok := s.Inverse()
	if !ok {
		return 0
	}
	vr, vb := f.innovation()
	ir, ib := sInv.MulVec(vr, vb)
	mahalanobis := vr*ir + vb*ib
	return math.Exp(-0.5*mahalanobis) / (2 * math.Pi * math.Sqrt(s.Det()))
}

// Update applies the buffered measurement to the filter state. Returns
// ErrNoRobotModel when the robot collaborator is missing and
// ErrSingularMatrix when the innovation covariance cannot be inverted; the
// belief is left unchanged on failure.
func (f *LandmarkEKF) Update() error {
	if f.robot == nil {
		return ErrNoRobotModel
	}
	h := f.robot.MeasurementJacobian(f.obsPose, f.mean)
	s := h.Mul(f.cov).Mul(h.Transpose()).Add(f.robot.MeasurementNoise())
	sInv, ok := s.Inverse()
	if !ok {
		return ErrSingularMatrix
	}

	// Gain K = P * H^T * S^-1
	k := f.cov.Mul(h.Transpose()).Mul(sInv)

	vr, vb := f.innovation()
	kx, ky := k.MulVec(vr, vb)
	f.mean.X += kx
	f.mean.Y += ky

	// P' = (I - K*H) * P
	kh := k.Mul(h)
	f.cov = Mat2{1 - kh[0], -kh[1], -kh[2], 1 - kh[3]}.Mul(f.cov)
	return nil
}

// Estimate returns the current landmark mean position.
func (f *LandmarkEKF) Estimate() Point {
	return f.mean
}

// Covariance returns the current belief covariance.
func (f *LandmarkEKF) Covariance() Mat2 {
	return f.cov
}

// Clone returns an independent copy of the filter. The copy shares only the
// read-only robot model.
func (f *LandmarkEKF) Clone() *LandmarkEKF {
	c := *f
	return &c
}
