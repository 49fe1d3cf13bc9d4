// Package slam implements a Rao-Blackwellized particle filter for
// simultaneous localization and mapping (FastSLAM 2.0 style). Each particle
// carries one trajectory hypothesis together with an independent bank of
// per-landmark EKFs conditioned on that trajectory; the filter samples poses,
// weights particles by how well they explain range/bearing observations, and
// resamples the population by importance weight.
package slam

import "errors"

// Pose is a robot trajectory hypothesis in the world frame.
// Theta is the heading in radians, normalized to (-pi, pi].
type Pose struct {
	X     float64
	Y     float64
	Theta float64
}

// Point is a 2D position estimate in the world frame (landmark mean).
type Point struct {
	X float64
	Y float64
}

// Observation is a single range/bearing measurement taken from the robot's
// current pose. Bearing is relative to the robot heading, in radians.
type Observation struct {
	Range   float64
	Bearing float64
}

// Errors returned by particle and filter updates. Landmark-filter failures
// propagate unchanged through the belief update; the per-step particle driver
// collapses any failure into ErrUpdateFailed, so callers at the population
// level only see the aggregate.
var (
	// ErrNoRobotModel indicates the required robot model collaborator is missing.
	ErrNoRobotModel = errors.New("slam: no robot model configured")
	// ErrSingularMatrix indicates a linear solve inside a landmark filter was singular.
	ErrSingularMatrix = errors.New("slam: singular matrix in landmark filter update")
	// ErrUpdateFailed aggregates any failure during a per-particle update step.
	ErrUpdateFailed = errors.New("slam: particle update failed")
)
