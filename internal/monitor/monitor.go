// Package monitor serves a read-only debug view of a running SLAM filter:
// a JSON status endpoint and an HTML scatter chart of the current sampled
// landmark map with the estimated trajectory overlaid.
package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/fastslam/internal/slam"
)

// MapSource is the filter surface the monitor reads. It must be safe for
// concurrent use; the monitor never mutates filter state through it.
type MapSource interface {
	SampleLandmarks() []slam.Point
	EstimatedPose() slam.Pose
	Particles() int
}

// WebServer exposes filter state over HTTP for debugging.
type WebServer struct {
	src MapSource

	mu         sync.Mutex
	trajectory []slam.Pose
}

// NewWebServer creates a monitor over the given filter.
func NewWebServer(src MapSource) *WebServer {
	return &WebServer{src: src}
}

// RecordPose appends a pose to the trajectory shown on the map page. The
// simulation driver calls this once per timestep.
func (ws *WebServer) RecordPose(p slam.Pose) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.trajectory = append(ws.trajectory, p)
}

// ServeMux returns the monitor's route table.
func (ws *WebServer) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/map", ws.handleMap)
	mux.HandleFunc("/", ws.handleStatus)
	return mux
}

func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	ws.mu.Lock()
	steps := len(ws.trajectory)
	ws.mu.Unlock()

	status := struct {
		Particles int       `json:"particles"`
		Landmarks int       `json:"landmarks"`
		Pose      slam.Pose `json:"pose"`
		Steps     int       `json:"steps"`
	}{
		Particles: ws.src.Particles(),
		Landmarks: len(ws.src.SampleLandmarks()),
		Pose:      ws.src.EstimatedPose(),
		Steps:     steps,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleMap renders the sampled landmark map and estimated trajectory as an
// HTML scatter chart.
func (ws *WebServer) handleMap(w http.ResponseWriter, r *http.Request) {
	landmarks := ws.src.SampleLandmarks()

	ws.mu.Lock()
	trajectory := make([]slam.Pose, len(ws.trajectory))
	copy(trajectory, ws.trajectory)
	ws.mu.Unlock()

	lmData := make([]opts.ScatterData, 0, len(landmarks))
	pad := 1.0
	for _, lm := range landmarks {
		lmData = append(lmData, opts.ScatterData{Value: []interface{}{lm.X, lm.Y}})
		pad = max(pad, abs(lm.X)*1.05, abs(lm.Y)*1.05)
	}
	trajData := make([]opts.ScatterData, 0, len(trajectory))
	for _, p := range trajectory {
		trajData = append(trajData, opts.ScatterData{Value: []interface{}{p.X, p.Y}})
		pad = max(pad, abs(p.X)*1.05, abs(p.Y)*1.05)
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "SLAM Map", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Landmark Map",
			Subtitle: fmt.Sprintf("landmarks=%d steps=%d", len(landmarks), len(trajectory)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (m)"}),
	)
	scatter.AddSeries("landmarks", lmData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}))
	scatter.AddSeries("trajectory", trajData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		http.Error(w, fmt.Sprintf("failed to render chart: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
