package scan

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/wonny/fscore/pkg/logger"
)

// Progress is a snapshot of one running scan
type Progress struct {
	Label     string        `json:"label"`
	Completed int           `json:"completed"`
	Total     int           `json:"total"`
	Success   int           `json:"success"`
	Failed    int           `json:"failed"`
	Elapsed   time.Duration `json:"elapsed"`
	ETA       time.Duration `json:"eta"`
	Done      bool          `json:"done"`
}

// Percent returns completion in [0,100]
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Completed) / float64(p.Total) * 100
}

// String formats the snapshot the way the log reporter prints it
func (p Progress) String() string {
	return fmt.Sprintf("[%s] %d/%d (%.1f%%) 성공 %d 실패 %d | 경과 %s | 남은 시간 %s",
		p.Label, p.Completed, p.Total, p.Percent(), p.Success, p.Failed,
		p.Elapsed.Round(time.Second), p.ETA.Round(time.Second))
}

// estimate fills Elapsed and a linear ETA from the average per-item duration
func estimate(p Progress, started time.Time, now time.Time) Progress {
	p.Elapsed = now.Sub(started)
	p.ETA = 0
	if p.Completed > 0 && p.Completed < p.Total {
		avg := p.Elapsed / time.Duration(p.Completed)
		p.ETA = avg * time.Duration(p.Total-p.Completed)
	}
	return p
}

// Reporter receives progress snapshots. Report is called from a single goroutine per scan.
type Reporter interface {
	Report(p Progress)
}

// ReporterFunc adapts a function to Reporter
type ReporterFunc func(p Progress)

// Report calls f(p)
func (f ReporterFunc) Report(p Progress) { f(p) }

// Reporters fans a snapshot out to several reporters
type Reporters []Reporter

// Report forwards p to every non-nil reporter
func (rs Reporters) Report(p Progress) {
	for _, r := range rs {
		if r != nil {
			r.Report(p)
		}
	}
}

// LogReporter writes snapshots to the structured log
type LogReporter struct {
	logger *logger.Logger
}

// NewLogReporter creates a log-backed reporter
func NewLogReporter(log *logger.Logger) *LogReporter {
	return &LogReporter{logger: log.WithComponent("scan")}
}

// Report logs the snapshot
func (r *LogReporter) Report(p Progress) {
	fields := map[string]interface{}{
		"label":     p.Label,
		"completed": p.Completed,
		"total":     p.Total,
		"success":   p.Success,
		"failed":    p.Failed,
		"elapsed":   p.Elapsed.Round(time.Second).String(),
	}
	if p.Done {
		r.logger.WithFields(fields).Info("Scan completed")
		return
	}
	fields["eta"] = p.ETA.Round(time.Second).String()
	r.logger.WithFields(fields).Infof("Scan progress %.1f%%", p.Percent())
}

// BarReporter draws a terminal progress bar per scan label
type BarReporter struct {
	mu    sync.Mutex
	out   io.Writer
	bar   *progressbar.ProgressBar
	label string
}

// NewBarReporter creates a progress bar reporter writing to out (usually stderr)
func NewBarReporter(out io.Writer) *BarReporter {
	return &BarReporter{out: out}
}

// Report advances the bar, starting a new one when the label changes
func (r *BarReporter) Report(p Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar == nil || r.label != p.Label {
		r.label = p.Label
		r.bar = progressbar.NewOptions(p.Total,
			progressbar.OptionSetWriter(r.out),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription(p.Label),
		)
	}

	_ = r.bar.Set(p.Completed)
	if p.Done {
		_ = r.bar.Finish()
		fmt.Fprintln(r.out)
		r.bar = nil
	}
}

// Latest keeps the most recent snapshot per label (served by the results API)
type Latest struct {
	mu        sync.RWMutex
	snapshots map[string]Progress
}

// NewLatest creates an empty snapshot store
func NewLatest() *Latest {
	return &Latest{snapshots: make(map[string]Progress)}
}

// Report stores p
func (l *Latest) Report(p Progress) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snapshots[p.Label] = p
}

// Snapshot returns a copy of all stored snapshots
func (l *Latest) Snapshot() map[string]Progress {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]Progress, len(l.snapshots))
	for k, v := range l.snapshots {
		out[k] = v
	}
	return out
}
