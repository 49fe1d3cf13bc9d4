// Command map-plot renders a recorded SLAM run as a PNG: the estimated
// landmark map from the final step, the estimated trajectory, and the
// ground-truth trajectory when the run recorded one.
package main

import (
	"flag"
	"image/color"
	"log"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/fastslam/internal/slamdb"
)

func main() {
	dbPath := flag.String("db", "slam.db", "run store path")
	runID := flag.String("run", "", "run identifier (default: latest run)")
	output := flag.String("o", "map.png", "output path")
	flag.Parse()

	db, err := slamdb.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open run store: %v", err)
	}
	defer db.Close()

	if *runID == "" {
		*runID, err = db.LatestRun()
		if err != nil {
			log.Fatalf("failed to find latest run: %v", err)
		}
	}

	summary, err := db.RunSummary(*runID)
	if err != nil {
		log.Fatalf("failed to load run summary: %v", err)
	}
	log.Printf("run %s (%q, %d steps)", summary.RunID, summary.Label, summary.Steps)

	trajectory, err := db.LoadTrajectory(*runID)
	if err != nil {
		log.Fatalf("failed to load trajectory: %v", err)
	}
	if len(trajectory) == 0 {
		log.Fatalf("run %s has no recorded steps", *runID)
	}
	landmarks, err := db.LoadLandmarks(*runID, -1)
	if err != nil {
		log.Fatalf("failed to load landmarks: %v", err)
	}

	p := plot.New()
	p.Title.Text = "SLAM run " + *runID
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	est := make(plotter.XYs, len(trajectory))
	var truth plotter.XYs
	for i, rec := range trajectory {
		est[i].X, est[i].Y = rec.Est.X, rec.Est.Y
		if rec.Truth != nil {
			truth = append(truth, plotter.XY{X: rec.Truth.X, Y: rec.Truth.Y})
		}
	}

	estLine, err := plotter.NewLine(est)
	if err != nil {
		log.Fatalf("failed to build estimate line: %v", err)
	}
	estLine.Color = color.RGBA{B: 255, A: 255}
	p.Add(estLine)
	p.Legend.Add("estimate", estLine)

	if len(truth) > 0 {
		truthLine, err := plotter.NewLine(truth)
		if err != nil {
			log.Fatalf("failed to build truth line: %v", err)
		}
		truthLine.Color = color.RGBA{R: 180, G: 180, B: 180, A: 255}
		truthLine.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
		p.Add(truthLine)
		p.Legend.Add("truth", truthLine)
	}

	lmPoints := make(plotter.XYs, len(landmarks))
	for i, lm := range landmarks {
		lmPoints[i].X, lmPoints[i].Y = lm.X, lm.Y
	}
	scatter, err := plotter.NewScatter(lmPoints)
	if err != nil {
		log.Fatalf("failed to build landmark scatter: %v", err)
	}
	scatter.Color = color.RGBA{R: 255, A: 255}
	scatter.Radius = vg.Points(3)
	p.Add(scatter)
	p.Legend.Add("landmarks", scatter)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, *output); err != nil {
		log.Fatalf("failed to save plot: %v", err)
	}
	log.Printf("✓ Wrote %s (%d trajectory points, %d landmarks)", *output, len(est), len(landmarks))
}
