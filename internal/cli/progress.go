// Package cli renders the benchmark run in the terminal: an asynchronous
// spinner with a progress bar and ETA while devices work, and formatting
// helpers for the final report.
package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

const (
	// ProgressRefreshRate is the refresh period of the progress line.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth is the width in characters of the progress bar.
	ProgressBarWidth = 40
)

// ProgressUpdate reports the completed fraction of one lane of work.
// A lane is the sequence of benchmark cases assigned to one device.
type ProgressUpdate struct {
	// Lane is the index of the reporting lane.
	Lane int
	// Value is the completed fraction, in [0, 1].
	Value float64
}

// Spinner abstracts the terminal spinner so that DisplayProgress can be
// tested without a terminal.
type Spinner interface {
	Start()
	Stop()
	UpdateSuffix(suffix string)
}

type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start()                     { rs.s.Start() }
func (rs *realSpinner) Stop()                      { rs.s.Stop() }
func (rs *realSpinner) UpdateSuffix(suffix string) { rs.s.Suffix = suffix }

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// ProgressState holds the progress of each lane.
type ProgressState struct {
	progresses []float64
}

// NewProgressState tracks lanes lanes.
func NewProgressState(lanes int) *ProgressState {
	return &ProgressState{progresses: make([]float64, lanes)}
}

// Update records value for lane; out-of-range lanes are ignored.
func (ps *ProgressState) Update(lane int, value float64) {
	if lane >= 0 && lane < len(ps.progresses) {
		ps.progresses[lane] = value
	}
}

// CalculateAverage returns the mean progress across lanes.
func (ps *ProgressState) CalculateAverage() float64 {
	if len(ps.progresses) == 0 {
		return 0
	}
	var total float64
	for _, p := range ps.progresses {
		total += p
	}
	return total / float64(len(ps.progresses))
}

// ProgressWithETA extends ProgressState with a smoothed rate estimate.
type ProgressWithETA struct {
	*ProgressState
	startTime    time.Time
	lastUpdate   time.Time
	lastProgress float64
	progressRate float64 // progress per second
}

// NewProgressWithETA tracks lanes lanes and estimates the time remaining.
func NewProgressWithETA(lanes int) *ProgressWithETA {
	now := time.Now()
	return &ProgressWithETA{
		ProgressState: NewProgressState(lanes),
		startTime:     now,
		lastUpdate:    now,
	}
}

// UpdateWithETA records value for lane and returns the average progress and
// the estimated time remaining (0 while there is too little data).
func (p *ProgressWithETA) UpdateWithETA(lane int, value float64) (progress float64, eta time.Duration) {
	p.Update(lane, value)
	progress = p.CalculateAverage()

	now := time.Now()
	elapsed := now.Sub(p.startTime)
	if elapsed < 100*time.Millisecond || progress <= 0.001 {
		p.lastUpdate = now
		p.lastProgress = progress
		return progress, 0
	}

	if since := now.Sub(p.lastUpdate).Seconds(); since > 0.05 {
		if delta := progress - p.lastProgress; delta > 0 {
			instant := delta / since
			if p.progressRate > 0 {
				p.progressRate = 0.7*p.progressRate + 0.3*instant
			} else {
				p.progressRate = progress / elapsed.Seconds()
			}
		}
		p.lastUpdate = now
		p.lastProgress = progress
	}
	return progress, p.GetETA()
}

// GetETA returns the estimated time remaining, capped at 24h.
func (p *ProgressWithETA) GetETA() time.Duration {
	progress := p.CalculateAverage()
	if p.progressRate <= 0 || progress >= 1.0 {
		return 0
	}
	eta := time.Duration((1.0 - progress) / p.progressRate * float64(time.Second))
	return min(eta, 24*time.Hour)
}

// FormatETA renders an ETA as "< 1s", "42s", "2m30s" or "1h15m".
func FormatETA(eta time.Duration) string {
	switch {
	case eta <= 0:
		return "calculating..."
	case eta < time.Second:
		return "< 1s"
	case eta < time.Minute:
		return fmt.Sprintf("%ds", int(eta.Seconds()))
	case eta < time.Hour:
		m, s := int(eta.Minutes()), int(eta.Seconds())%60
		if s > 0 {
			return fmt.Sprintf("%dm%ds", m, s)
		}
		return fmt.Sprintf("%dm", m)
	}
	h, m := int(eta.Hours()), int(eta.Minutes())%60
	if m > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dh", h)
}

func progressBar(progress float64, length int) string {
	progress = min(max(progress, 0), 1)
	count := int(progress * float64(length))
	var b strings.Builder
	b.Grow(length * 3)
	for i := range length {
		if i < count {
			b.WriteRune('█')
		} else {
			b.WriteRune('░')
		}
	}
	return b.String()
}

func progressLabel(lanes int) string {
	if lanes > 1 {
		return fmt.Sprintf("Progress (%d devices)", lanes)
	}
	return "Progress"
}

// DisplayProgress shows a spinner with the aggregated progress of lanes
// lanes until progressChan is closed. It runs in its own goroutine and
// calls wg.Done on return.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, lanes int, out io.Writer) {
	defer wg.Done()
	if lanes <= 0 {
		for range progressChan {
		}
		return
	}

	state := NewProgressWithETA(lanes)
	s := newSpinner(spinner.WithWriter(out))
	s.Start()
	stopped := false
	defer func() {
		if !stopped {
			s.Stop()
		}
	}()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	label := progressLabel(lanes)
	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				s.Stop()
				stopped = true
				fmt.Fprintf(out, "%s: %6.2f%% [%s]\n", label, 100.0, progressBar(1.0, ProgressBarWidth))
				return
			}
			state.UpdateWithETA(update.Lane, update.Value)
		case <-ticker.C:
			avg := state.CalculateAverage()
			s.UpdateSuffix(fmt.Sprintf(" %s: %6.2f%% [%s] ETA: %s",
				label, avg*100, progressBar(avg, ProgressBarWidth), FormatETA(state.GetETA())))
		}
	}
}
