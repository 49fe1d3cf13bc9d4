// Command slam-sim drives the particle filter through a synthetic world:
// random point landmarks, a robot on a circuit, and noisy range/bearing
// observations. Each timestep is recorded to the run store, and the live
// filter can be inspected over HTTP while the simulation runs.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"net/http"

	"github.com/banshee-data/fastslam/internal/monitor"
	"github.com/banshee-data/fastslam/internal/slam"
	"github.com/banshee-data/fastslam/internal/slamdb"
)

func main() {
	particles := flag.Int("particles", 100, "number of particles")
	steps := flag.Int("steps", 200, "number of simulation steps")
	landmarks := flag.Int("landmarks", 12, "number of landmarks in the synthetic world")
	seed := flag.Uint64("seed", 1, "RNG seed for the world and the filter")
	importance := flag.Float64("importance", 0.05, "landmark importance factor")
	dbPath := flag.String("db", "slam.db", "run store path")
	listen := flag.String("listen", "", "optional monitor listen address (e.g. :8080)")
	debug := flag.Bool("debug", false, "log per-particle update detail")
	flag.Parse()

	sensorCfg := slam.DefaultRangeBearingConfig()
	robot := slam.NewRangeBearingRobot(sensorCfg)

	cfg := slam.DefaultConfig()
	cfg.Particles = *particles
	cfg.ImportanceFactor = *importance
	cfg.Seed = *seed
	cfg.Debug = *debug
	filter, err := slam.New(robot, cfg)
	if err != nil {
		log.Fatalf("failed to create filter: %v", err)
	}

	rng := rand.New(rand.NewPCG(*seed, *seed+1))
	world := make([]slam.Point, *landmarks)
	for i := range world {
		world[i] = slam.Point{
			X: (rng.Float64() - 0.5) * 24,
			Y: (rng.Float64() - 0.5) * 24,
		}
	}

	db, err := slamdb.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open run store: %v", err)
	}
	defer db.Close()

	runID, err := db.CreateRun(fmt.Sprintf("sim particles=%d steps=%d landmarks=%d seed=%d",
		*particles, *steps, *landmarks, *seed))
	if err != nil {
		log.Fatalf("failed to create run: %v", err)
	}
	log.Printf("run %s", runID)

	var ws *monitor.WebServer
	if *listen != "" {
		ws = monitor.NewWebServer(filter)
		go func() {
			log.Printf("monitor listening on %s", *listen)
			if err := http.ListenAndServe(*listen, ws.ServeMux()); err != nil {
				log.Printf("monitor server: %v", err)
			}
		}()
	}

	truth := slam.Pose{X: 0, Y: -8}
	omega := 2 * math.Pi / float64(*steps)
	for step := 0; step < *steps; step++ {
		truth = advance(truth, 0.25, omega)
		obs := observe(rng, robot, sensorCfg, world, truth)

		filter.Update(truth, obs)

		est := filter.EstimatedPose()
		if ws != nil {
			ws.RecordPose(est)
		}
		if err := db.RecordStep(runID, step, est, &truth, filter.SampleLandmarks()); err != nil {
			log.Fatalf("failed to record step %d: %v", step, err)
		}

		if (step+1)%10 == 0 {
			log.Printf("step %d/%d: %d observations, est (%.2f, %.2f, %.2f)",
				step+1, *steps, len(obs), est.X, est.Y, est.Theta)
		}
	}

	if err := db.FinishRun(runID); err != nil {
		log.Fatalf("failed to finish run: %v", err)
	}
	log.Printf("✓ Recorded %d steps to %s (run %s)", *steps, *dbPath, runID)
}

// advance moves the true robot pose one step along a circular circuit.
func advance(p slam.Pose, v, omega float64) slam.Pose {
	theta := slam.NormalizeAngle(p.Theta + omega)
	return slam.Pose{
		X:     p.X + v*math.Cos(theta),
		Y:     p.Y + v*math.Sin(theta),
		Theta: theta,
	}
}

// observe returns a noisy range/bearing observation for every world landmark
// within the sensor's perceptual range of the true pose.
func observe(rng *rand.Rand, robot *slam.RangeBearingRobot, cfg slam.RangeBearingConfig,
	world []slam.Point, truth slam.Pose,
) []slam.Observation {
	var out []slam.Observation
	for _, lm := range world {
		o := robot.Measurement(truth, lm)
		if o.Range > robot.PerceptualRange() {
			continue
		}
		o.Range += rng.NormFloat64() * math.Sqrt(cfg.RangeVariance)
		if o.Range < 0 {
			o.Range = 0
		}
		o.Bearing = slam.NormalizeAngle(o.Bearing + rng.NormFloat64()*math.Sqrt(cfg.BearingVariance))
		out = append(out, o)
	}
	return out
}
