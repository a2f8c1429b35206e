package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/giering/throwsage-viewer/internal/httputil"
	"github.com/giering/throwsage-viewer/internal/metrics"
	"github.com/giering/throwsage-viewer/internal/tags"
)

// metricChart renders an interactive HTML line chart of one metric
// series. This is the quick-look surface the browser tools embed next
// to the 3D view.
func (s *Server) metricChart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()

	name := r.PathValue("name")
	series, ok := sess.Metrics().Get(name)
	if !ok {
		httputil.NotFound(w, "metric absent")
		return
	}

	// Untracked frames render as gaps, carried as nulls.
	vals := nullableValues(series)
	frames := make([]int, series.Len())
	data := make([]opts.LineData, series.Len())
	for f := 0; f < series.Len(); f++ {
		frames[f] = f
		data[f] = opts.LineData{Value: vals[f]}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("%s: %s", sess.VideoID, name),
			Width:     "1200px",
			Height:    "500px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    name,
			Subtitle: fmt.Sprintf("video=%s source=%s frames=%d", sess.VideoID, series.Source, series.Len()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "degrees"}),
	)
	line.SetXAxis(frames)
	line.AddSeries(name, data, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false)}))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, "render chart: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// metricPlot renders a PNG of one metric series with the annotated
// throw window marked, for offline report export.
func (s *Server) metricPlot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()

	name := r.PathValue("name")
	series, ok := sess.Metrics().Get(name)
	if !ok {
		httputil.NotFound(w, "metric absent")
		return
	}

	png, err := RenderSeriesPNG(series, sess.Record())
	if err != nil {
		httputil.InternalServerError(w, "render plot: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// RenderSeriesPNG draws one metric series as a line plot, marking the
// annotated throw window (T0 and release) as vertical guides when
// set. Shared with the offline metric-plot tool.
func RenderSeriesPNG(series *metrics.Series, rec *tags.Record) ([]byte, error) {
	p := plot.New()
	p.Title.Text = series.Name
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Degrees"

	pts := make(plotter.XYs, 0, series.Len())
	lo, hi := 0.0, 0.0
	for f := 0; f < series.Len(); f++ {
		v := series.ValueAt(f)
		if v != v { // skip NaN gaps (untracked hammer)
			continue
		}
		if len(pts) == 0 || v < lo {
			lo = v
		}
		if len(pts) == 0 || v > hi {
			hi = v
		}
		pts = append(pts, plotter.XY{X: float64(f), Y: v})
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(series.Name, line)
	p.Legend.Top = true

	addGuide := func(frame int, label string) error {
		if frame == tags.Unset {
			return nil
		}
		guide, err := plotter.NewLine(plotter.XYs{
			{X: float64(frame), Y: lo},
			{X: float64(frame), Y: hi},
		})
		if err != nil {
			return err
		}
		guide.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(guide)
		p.Legend.Add(label, guide)
		return nil
	}
	if err := addGuide(rec.T0(), "T0"); err != nil {
		return nil, err
	}
	if err := addGuide(rec.Release(), "release"); err != nil {
		return nil, err
	}

	// Annotated support marks land on the metric line as glyphs.
	addMarks := func(frames []int, label string) error {
		var xys plotter.XYs
		for _, f := range frames {
			if f < 0 || f >= series.Len() {
				continue
			}
			v := series.ValueAt(f)
			if v != v {
				continue
			}
			xys = append(xys, plotter.XY{X: float64(f), Y: v})
		}
		if len(xys) == 0 {
			return nil
		}
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		scatter.GlyphStyle.Radius = vg.Points(3)
		p.Add(scatter)
		p.Legend.Add(label, scatter)
		return nil
	}
	if err := addMarks(rec.SingleSupport(), "SS"); err != nil {
		return nil, err
	}
	if err := addMarks(rec.DoubleSupport(), "DS"); err != nil {
		return nil, err
	}

	wt, err := p.WriterTo(12*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
