package slam

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestNew(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Particles = 4
	f, err := New(testRobot(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if f.Particles() != 4 {
		t.Fatalf("Particles() = %d, want 4", f.Particles())
	}
	for i, w := range f.Weights() {
		if w != 0.25 {
			t.Errorf("weights[%d] = %v, want 1/N = 0.25", i, w)
		}
	}
}

func TestNew_Invalid(t *testing.T) {
	if _, err := New(nil, DefaultConfig()); err == nil {
		t.Error("expected error for nil robot model")
	}
	cfg := DefaultConfig()
	cfg.Particles = 0
	if _, err := New(testRobot(), cfg); err == nil {
		t.Error("expected error for zero particles")
	}
}

func TestDrawWithReplacement(t *testing.T) {
	cdf := []float64{1, 3, 6}

	cases := []struct {
		sample float64
		want   int
	}{
		{0, 0},
		{1, 0},      // boundary-exact sample selects the bin it equals
		{1.001, 1},  // just past a boundary falls into the next bin
		{3, 1},      // lower-bound rule at an interior boundary
		{5.999, 2},
		{6, 2},      // sample equal to the total selects the last bin
		{-0.1, -1},  // below range: invalid sentinel
		{6.1, -1},   // above range: invalid sentinel
	}
	for _, tc := range cases {
		if got := drawWithReplacement(cdf, tc.sample); got != tc.want {
			t.Errorf("drawWithReplacement(%v, %v) = %d, want %d", cdf, tc.sample, got, tc.want)
		}
	}

	if got := drawWithReplacement(nil, 0); got != -1 {
		t.Errorf("drawWithReplacement on empty table = %d, want -1", got)
	}
}

func TestWeightedDrawConvergence(t *testing.T) {
	weights := []float64{1, 2, 3, 4}
	total, cdf := GenCDF(weights)

	const n = 50000
	src := rand.NewPCG(7, 11)
	uniform := distuv.Uniform{Min: 0, Max: total, Src: src}

	counts := make([]int, len(weights))
	for i := 0; i < n; i++ {
		idx := drawWithReplacement(cdf, uniform.Rand())
		if idx < 0 {
			t.Fatalf("draw %d returned invalid index", i)
		}
		counts[idx]++
	}

	for i, w := range weights {
		p := w / total
		freq := float64(counts[i]) / n
		// 4 sigma of the binomial sampling error.
		bound := 4 * math.Sqrt(p*(1-p)/n)
		if math.Abs(freq-p) > bound {
			t.Errorf("index %d frequency %v deviates from %v by more than %v", i, freq, p, bound)
		}
	}
}

func TestSamplePose_PerturbsAroundMean(t *testing.T) {
	robot := NewRangeBearingRobot(RangeBearingConfig{
		RangeVariance:   0.01,
		BearingVariance: 0.0025,
		ProcessNoise:    [3]float64{1e-8, 1e-8, 1e-8},
		MaxRange:        15,
	})
	cfg := DefaultConfig()
	cfg.Particles = 1
	f, err := New(robot, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	mean := Pose{X: 2, Y: -3, Theta: 0.5}
	for i := 0; i < 100; i++ {
		got := f.SamplePose(mean)
		if math.Abs(got.X-mean.X) > 0.01 || math.Abs(got.Y-mean.Y) > 0.01 ||
			math.Abs(got.Theta-mean.Theta) > 0.01 {
			t.Fatalf("sampled pose %+v too far from mean %+v for tiny process noise", got, mean)
		}
	}
}

func TestResample_DeepCopyIndependence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Particles = 2
	cfg.ImportanceFactor = 0.1
	cfg.Seed = 3
	f, err := New(testRobot(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Give particle 0 a landmark, then force every slot to resample from it.
	obs := Observation{Range: 3, Bearing: 0.2}
	if _, err := f.particles[0].Update(obs, Pose{}); err != nil {
		t.Fatalf("particle update: %v", err)
	}
	f.weights[0] = 1
	f.weights[1] = 0
	f.Resample()

	for i, p := range f.particles {
		if p.Landmarks() != 1 {
			t.Fatalf("particle %d landmarks = %d, want 1 (copied from source 0)", i, p.Landmarks())
		}
	}

	// Mutating one slot's bank must leave the other slot untouched even
	// though both were drawn from the same source particle.
	want := f.particles[1].LandmarkCoordinates()
	f.particles[0].bank[0].filter.mean = Point{X: 1e6, Y: 1e6}

	if diff := cmp.Diff(want, f.particles[1].LandmarkCoordinates()); diff != "" {
		t.Errorf("sibling particle changed after mutation (-want +got):\n%s", diff)
	}
}

func TestUpdate_EndToEnd(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Particles = 3
	cfg.ImportanceFactor = 0.1
	cfg.Seed = 9
	f, err := New(testRobot(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	f.Update(Pose{}, []Observation{{Range: 4, Bearing: 0.3}})

	// All banks started empty, so every particle must have created exactly
	// one landmark with a single sighting, and every weight must have grown
	// by exactly the importance factor.
	for i := 0; i < f.Particles(); i++ {
		p := f.particles[i]
		if p.Landmarks() != 1 {
			t.Errorf("particle %d landmarks = %d, want 1", i, p.Landmarks())
		} else if p.Sightings(0) != 1 {
			t.Errorf("particle %d sightings = %d, want 1", i, p.Sightings(0))
		}
	}
	for i, w := range f.Weights() {
		want := 1.0/3.0 + 0.1
		if math.Abs(w-want) > 1e-12 {
			t.Errorf("weights[%d] = %v, want %v", i, w, want)
		}
	}
}

func TestSampleLandmarks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Particles = 3
	cfg.ImportanceFactor = 0.1
	cfg.Seed = 5
	f, err := New(testRobot(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	f.Update(Pose{}, []Observation{{Range: 4, Bearing: 0.3}})

	coords := f.SampleLandmarks()
	if len(coords) != 1 {
		t.Fatalf("SampleLandmarks returned %d landmarks, want 1", len(coords))
	}
}

func TestEstimatedPose_UniformWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Particles = 5
	cfg.StartPose = Pose{X: 1, Y: 2, Theta: 0.5}
	f, err := New(testRobot(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := f.EstimatedPose()
	if math.Abs(got.X-1) > 1e-12 || math.Abs(got.Y-2) > 1e-12 || math.Abs(got.Theta-0.5) > 1e-12 {
		t.Errorf("EstimatedPose = %+v, want start pose", got)
	}
}
