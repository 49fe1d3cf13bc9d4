package slam

import (
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Config holds filter construction parameters.
type Config struct {
	Particles        int     // Number of particles N
	ImportanceFactor float64 // Data-association baseline per particle
	StartPose        Pose    // Initial pose for every particle
	Seed             uint64  // RNG seed; a fixed seed makes runs reproducible
	TrackAbsence     bool    // Enable evidence-of-absence bookkeeping
	Debug            bool    // Log per-particle update detail
}

// DefaultConfig returns default filter configuration.
func DefaultConfig() Config {
	return Config{
		Particles:        100,
		ImportanceFactor: 0.05,
		Seed:             1,
	}
}

// Filter is a fixed-size particle population with a positionally aligned
// weight vector: weights[i] always belongs to particles[i], and every
// reshuffle preserves that alignment. Particle identifiers are stable slice
// indices; resampling replaces slot contents, never slot identity.
type Filter struct {
	mu sync.RWMutex

	robot     RobotModel
	particles []*Particle
	weights   []float64

	src    rand.Source
	normal distuv.Normal

	debug bool
}

// New creates a filter of cfg.Particles particles, all at cfg.StartPose with
// empty landmark banks, each weighted 1/N.
func New(robot RobotModel, cfg Config) (*Filter, error) {
	if robot == nil {
		return nil, ErrNoRobotModel
	}
	if cfg.Particles < 1 {
		return nil, fmt.Errorf("slam: particle count must be >= 1, got %d", cfg.Particles)
	}

	src := rand.NewPCG(cfg.Seed, cfg.Seed+1)
	f := &Filter{
		robot:     robot,
		particles: make([]*Particle, cfg.Particles),
		weights:   make([]float64, cfg.Particles),
		src:       src,
		normal:    distuv.Normal{Mu: 0, Sigma: 1, Src: src},
		debug:     cfg.Debug,
	}
	for i := range f.particles {
		p := NewParticle(cfg.ImportanceFactor, cfg.StartPose, robot)
		p.trackAbsence = cfg.TrackAbsence
		f.particles[i] = p
		f.weights[i] = 1.0 / float64(cfg.Particles)
	}
	return f, nil
}

// SamplePose draws a pose from a 3D Gaussian centered on mean with the
// robot's process-noise covariance, via the reparameterization mean + L*z.
func (f *Filter) SamplePose(mean Pose) Pose {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.samplePose(mean)
}

func (f *Filter) samplePose(mean Pose) Pose {
	l, _ := covarianceSqrt(f.robot.ProcessNoise())
	z := mat.NewVecDense(3, []float64{f.normal.Rand(), f.normal.Rand(), f.normal.Rand()})
	var d mat.VecDense
	d.MulVec(l, z)
	return Pose{
		X:     mean.X + d.AtVec(0),
		Y:     mean.Y + d.AtVec(1),
		Theta: NormalizeAngle(mean.Theta + d.AtVec(2)),
	}
}

// drawWithReplacement maps a sample in [0, total] through a cumulative table
// to a bin index with lower-bound semantics: the lowest index whose
// cumulative value is >= sample. A sample outside [0, total] returns -1 and
// the caller must treat that as "keep current".
func drawWithReplacement(cdf []float64, sample float64) int {
	if len(cdf) == 0 || sample < 0 || sample > cdf[len(cdf)-1] {
		return -1
	}
	return sort.SearchFloat64s(cdf, sample)
}

// Update consumes observations strictly in arrival order. For each
// observation, every particle (in identifier order) gets a freshly sampled
// pose hypothesis and processes the observation; its importance contribution
// is added into its weight slot, accumulating across the whole batch. A
// failed particle update leaves that particle's weight unchanged. After the
// batch is drained the population is resampled exactly once.
func (f *Filter) Update(poseMean Pose, observations []Observation) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, obs := range observations {
		for i, p := range f.particles {
			sampled := f.samplePose(poseMean)
			w, err := p.Update(obs, sampled)
			if err != nil {
				log.Printf("slam: particle %d: %v", i, err)
				continue
			}
			f.weights[i] += w
			if f.debug {
				log.Printf("slam: particle %d weight %.6f (contribution %.6f)", i, f.weights[i], w)
			}
		}
	}
	f.resample()
}

// Resample replaces the population by multinomial resampling: each slot
// independently draws a source particle proportionally to the weights and
// receives a deep copy of it.
func (f *Filter) Resample() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resample()
}

func (f *Filter) resample() {
	total, cdf := GenCDF(f.weights)

	next := make([]*Particle, len(f.particles))
	for i := range f.particles {
		sample := distuv.Uniform{Min: 0, Max: total, Src: f.src}.Rand()
		src := drawWithReplacement(cdf, sample)
		if src < 0 {
			// Leave the original particle if sampling goes wrong.
			src = i
		}
		next[i] = f.particles[src].Clone()
	}
	f.particles = next
}

// SampleLandmarks draws one particle proportionally to the weights and
// returns its landmark coordinate list: a representative map snapshot.
// Filter state is not mutated beyond the RNG advancing.
func (f *Filter) SampleLandmarks() []Point {
	f.mu.Lock()
	defer f.mu.Unlock()

	total, cdf := GenCDF(f.weights)
	sample := distuv.Uniform{Min: 0, Max: total, Src: f.src}.Rand()
	idx := drawWithReplacement(cdf, sample)
	if idx < 0 {
		idx = 0
	}
	return f.particles[idx].LandmarkCoordinates()
}

// EstimatedPose returns the weighted mean of the particle poses, with the
// heading averaged on the circle.
func (f *Filter) EstimatedPose() Pose {
	f.mu.RLock()
	defer f.mu.RUnlock()

	total, _ := GenCDF(f.weights)
	if total == 0 {
		return Pose{}
	}
	var x, y, sinSum, cosSum float64
	for i, p := range f.particles {
		w := f.weights[i] / total
		pose := p.Pose()
		x += w * pose.X
		y += w * pose.Y
		sinSum += w * math.Sin(pose.Theta)
		cosSum += w * math.Cos(pose.Theta)
	}
	return Pose{X: x, Y: y, Theta: math.Atan2(sinSum, cosSum)}
}

// Weights returns a copy of the weight vector.
func (f *Filter) Weights() []float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	w := make([]float64, len(f.weights))
	copy(w, f.weights)
	return w
}

// Particles returns the population size.
func (f *Filter) Particles() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.particles)
}
