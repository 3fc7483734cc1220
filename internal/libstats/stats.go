// Package libstats contains shooting statistics calculations and reporting
// for the photo library.
package libstats

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/verte-zerg/echosnap/internal/model"
)

// Summary holds aggregate numbers across a set of shots.
type Summary struct {
	Shots        int
	AvgZoom      float64
	AvgBias      float64
	FirstTaken   time.Time
	LastTaken    time.Time
	Orientations map[string]int
}

// Summarize computes aggregate statistics for the shots.
func Summarize(shots []model.Shot) Summary {
	s := Summary{Orientations: map[string]int{}}
	if len(shots) == 0 {
		return s
	}
	s.Shots = len(shots)
	s.FirstTaken = shots[0].TakenAt
	s.LastTaken = shots[0].TakenAt
	var zoomSum, biasSum float64
	for _, shot := range shots {
		zoomSum += shot.ZoomFactor
		biasSum += shot.ExposureBias
		s.Orientations[shot.Orientation]++
		if shot.TakenAt.Before(s.FirstTaken) {
			s.FirstTaken = shot.TakenAt
		}
		if shot.TakenAt.After(s.LastTaken) {
			s.LastTaken = shot.TakenAt
		}
	}
	s.AvgZoom = zoomSum / float64(len(shots))
	s.AvgBias = biasSum / float64(len(shots))
	return s
}

// DailyBucket is the number of shots taken on a single day.
type DailyBucket struct {
	Day   time.Time
	Count int
}

// DailyCounts buckets shots per calendar day, filling gaps with zero-count
// days so plots keep a linear time axis.
func DailyCounts(shots []model.Shot) []DailyBucket {
	if len(shots) == 0 {
		return nil
	}
	counts := map[time.Time]int{}
	for _, shot := range shots {
		t := shot.TakenAt.Local()
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
		counts[day]++
	}
	days := make([]time.Time, 0, len(counts))
	for day := range counts {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := make([]DailyBucket, 0, len(days))
	for day := days[0]; !day.After(days[len(days)-1]); day = day.AddDate(0, 0, 1) {
		out = append(out, DailyBucket{Day: day, Count: counts[day]})
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// RenderSummary prints a summary block for the shots.
func RenderSummary(w io.Writer, s Summary) error {
	if s.Shots == 0 {
		_, err := fmt.Fprintln(w, "No shots found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Shots: %d\n", s.Shots); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "First: %s\n", s.FirstTaken.Local().Format("2006-01-02 15:04")); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Last: %s\n", s.LastTaken.Local().Format("2006-01-02 15:04")); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg Zoom: %.2fx\n", s.AvgZoom); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg EV: %+.2f\n", s.AvgBias); err != nil {
		return err
	}
	names := make([]string, 0, len(s.Orientations))
	for name := range s.Orientations {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "%s: %d\n", name, s.Orientations[name]); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderActivity prints the shots-per-day histogram sized to a given total width.
func RenderActivity(w io.Writer, shots []model.Shot, totalWidth, height int, useColor bool) error {
	buckets := DailyCounts(shots)
	if len(buckets) == 0 {
		return nil
	}
	values := make([]float64, len(buckets))
	for i, b := range buckets {
		values[i] = float64(b.Count)
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotHistogram(w, Histogram{
		Title:      "Shots per Day",
		Values:     values,
		FirstLabel: buckets[0].Day.Format("2006-01-02"),
		LastLabel:  buckets[len(buckets)-1].Day.Format("2006-01-02"),
	}, width, height, useColor)
}

// RenderZoomTrend prints the smoothed zoom factor per shot in capture order.
func RenderZoomTrend(w io.Writer, shots []model.Shot, window, totalWidth, height int, useColor bool) error {
	if len(shots) == 0 {
		return nil
	}
	zooms := make([]float64, len(shots))
	for i, shot := range shots {
		zooms[i] = shot.ZoomFactor
	}
	zooms = MovingAverage(zooms, window)
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotHistogram(w, Histogram{
		Title:      "Zoom per Shot",
		Values:     zooms,
		FirstLabel: "oldest",
		LastLabel:  "newest",
	}, width, height, useColor)
}
