package slam

import (
	"fmt"
	"math"
)

// landmarkEntry pairs a landmark filter with the evidence accumulated for it.
// Sightings is incremented on every successful update and decremented by the
// evidence-of-absence pass; an external pruning policy may act on it.
type landmarkEntry struct {
	filter    *LandmarkEKF
	sightings int
}

// Particle is one trajectory hypothesis with its conditional landmark map.
// It owns its landmark bank exclusively; no other particle reads or mutates
// it, which keeps per-particle updates independent.
type Particle struct {
	importanceFactor float64
	pose             Pose
	robot            RobotModel

	// Association result of the most recent MatchLandmark call: the index
	// of the matched bank entry, or len(bank) as the new-landmark sentinel,
	// and the best correspondence score seen.
	dataLabel int
	maxScore  float64

	bank []landmarkEntry

	// trackAbsence enables the evidence-of-absence bookkeeping pass after
	// each successful update.
	trackAbsence bool
}

// NewParticle creates a particle at the given pose with an empty landmark bank.
// The importance factor seeds data association: an existing landmark is only
// matched when its correspondence likelihood strictly exceeds it.
func NewParticle(importanceFactor float64, pose Pose, robot RobotModel) *Particle {
	return &Particle{
		importanceFactor: importanceFactor,
		pose:             pose,
		robot:            robot,
	}
}

// MatchLandmark feeds obs to every landmark filter in the bank and records the
// index of the best correspondence. The running maximum is seeded at the
// importance factor, so a landmark is matched only if its likelihood strictly
// exceeds that baseline; ties keep the first-encountered maximizer. When
// nothing beats the baseline the result is len(bank), the new-landmark
// sentinel. An empty bank therefore always yields 0.
func (p *Particle) MatchLandmark(obs Observation) int {
	maxScore := p.importanceFactor
	label := len(p.bank)

	for i := range p.bank {
		f := p.bank[i].filter
		f.UpdateObservation(p.pose, obs)
		if w := f.CPD(); w > maxScore {
			maxScore = w
			label = i
		}
	}

	p.dataLabel = label
	p.maxScore = maxScore
	return label
}

// UpdateLandmarkBelief applies obs according to the last association result.
// A sentinel association initializes a new landmark filter; otherwise the
// matched filter is updated in place. Filter-level errors are returned
// unchanged and leave the matched entry's sighting count untouched.
func (p *Particle) UpdateLandmarkBelief(obs Observation) error {
	if p.robot == nil {
		return ErrNoRobotModel
	}

	if p.dataLabel == len(p.bank) {
		mean := p.robot.InverseMeasurement(p.pose, obs)
		jac := p.robot.MeasurementJacobian(p.pose, mean)

		// Standard EKF initialization covariance J^-1 * R * J^-T, with an
		// identity fallback when the Jacobian is singular.
		cov := Identity2()
		if jacInv, ok := jac.Inverse(); ok {
			cov = jacInv.Mul(p.robot.MeasurementNoise()).Mul(jacInv.Transpose())
		}

		p.bank = append(p.bank, landmarkEntry{
			filter:    NewLandmarkEKF(mean, cov, p.robot),
			sightings: 1,
		})
		return nil
	}

	entry := &p.bank[p.dataLabel]
	entry.filter.UpdateObservation(p.pose, obs)
	if err := entry.filter.Update(); err != nil {
		return err
	}
	entry.sightings++
	return nil
}

// CleanupSightings decrements the sighting count of every landmark, other
// than the one just matched, whose estimated position lies within the robot's
// perceptual range. A landmark that should have been visible but was not
// matched accumulates negative evidence for an external pruning policy.
func (p *Particle) CleanupSightings() {
	for i := range p.bank {
		if i == p.dataLabel {
			continue
		}
		est := p.bank[i].filter.Estimate()
		if math.Hypot(est.X-p.pose.X, est.Y-p.pose.Y) <= p.robot.PerceptualRange() {
			p.bank[i].sightings--
		}
	}
}

// UpdatePose replaces the particle's pose hypothesis wholesale.
func (p *Particle) UpdatePose(pose Pose) {
	p.pose = pose
}

// Update is the per-step driver: it installs the externally sampled pose,
// runs association and belief update for obs, and returns the particle's
// importance contribution, which is the best correspondence score achieved
// this step (the importance factor itself when a new landmark was created).
// Any failure is collapsed into ErrUpdateFailed.
func (p *Particle) Update(obs Observation, pose Pose) (float64, error) {
	if p.robot == nil {
		return 0, ErrNoRobotModel
	}
	p.UpdatePose(pose)

	p.MatchLandmark(obs)
	if err := p.UpdateLandmarkBelief(obs); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}

	if p.trackAbsence {
		p.CleanupSightings()
	}
	return p.maxScore, nil
}

// Pose returns the particle's current pose hypothesis.
func (p *Particle) Pose() Pose {
	return p.pose
}

// Landmarks returns the number of landmarks in the bank.
func (p *Particle) Landmarks() int {
	return len(p.bank)
}

// Sightings returns the sighting count of landmark i.
func (p *Particle) Sightings(i int) int {
	return p.bank[i].sightings
}

// LandmarkCoordinates returns the mean position estimate of every landmark in
// bank order. It has no side effects.
func (p *Particle) LandmarkCoordinates() []Point {
	coords := make([]Point, len(p.bank))
	for i := range p.bank {
		coords[i] = p.bank[i].filter.Estimate()
	}
	return coords
}

// Clone returns a deep copy of the particle. Every landmark filter in the
// copy is newly allocated: after resampling, several slots may originate from
// the same source particle and their subsequent updates must never alias
// shared filter state. Only the read-only robot model is shared.
func (p *Particle) Clone() *Particle {
	c := &Particle{
		importanceFactor: p.importanceFactor,
		pose:             p.pose,
		robot:            p.robot,
		dataLabel:        p.dataLabel,
		maxScore:         p.maxScore,
		trackAbsence:     p.trackAbsence,
		bank:             make([]landmarkEntry, len(p.bank)),
	}
	for i := range p.bank {
		c.bank[i] = landmarkEntry{
			filter:    p.bank[i].filter.Clone(),
			sightings: p.bank[i].sightings,
		}
	}
	return c
}
