package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/internal/report"
	"github.com/wonny/fscore/pkg/logger"
)

// Controller accumulates rows keyed by security code and persists them every interval completions.
// The checkpoint file of a finished run is the run's result artifact.
// ⭐ SSOT: 체크포인트 저장/재개는 이 패키지에서만
type Controller[R any] struct {
	path     string
	interval int
	key      func(R) string
	logger   *logger.Logger

	mu        sync.Mutex
	rows      []R
	index     map[string]int
	sinceSave int
}

// New creates a controller for <dir>/<prefix>_YYYYMMDD.csv.
// R must be a pointer to a csv-tagged struct.
func New[R any](dir, prefix string, date time.Time, interval int, key func(R) string, log *logger.Logger) *Controller[R] {
	if interval <= 0 {
		interval = 1
	}
	return &Controller[R]{
		path:     report.ArtifactPath(dir, prefix, date),
		interval: interval,
		key:      key,
		logger:   log.WithComponent("checkpoint"),
		index:    make(map[string]int),
	}
}

// Path returns the checkpoint file location
func (c *Controller[R]) Path() string {
	return c.path
}

// Load reads the run-date checkpoint if one exists and returns its rows.
// 파일이 없으면 빈 결과 (새 실행)
func (c *Controller[R]) Load() ([]R, error) {
	var rows []R
	if err := report.ReadCSV(c.path, &rows); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("load checkpoint %s: %w", c.path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.rows = c.rows[:0]
	c.index = make(map[string]int, len(rows))
	for _, row := range rows {
		c.upsert(row)
	}

	c.logger.WithFields(map[string]interface{}{
		"path": c.path,
		"rows": len(c.rows),
	}).Info("Checkpoint loaded")

	return c.snapshot(), nil
}

// Pending removes already checkpointed codes from candidates, preserving order
func (c *Controller[R]) Pending(candidates []contracts.Candidate) []contracts.Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()

	pending := make([]contracts.Candidate, 0, len(candidates))
	for _, cand := range candidates {
		if _, done := c.index[contracts.NormalizeCode(cand.Code)]; done {
			continue
		}
		pending = append(pending, cand)
	}
	return pending
}

// Add records one completed row and saves when the interval is reached
func (c *Controller[R]) Add(row R) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.upsert(row)
	c.sinceSave++
	if c.sinceSave < c.interval {
		return nil
	}
	return c.save()
}

// Flush writes all rows regardless of the interval
func (c *Controller[R]) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save()
}

// Rows returns a copy of the accumulated rows, deduplicated by key
func (c *Controller[R]) Rows() []R {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// RowsFor returns the accumulated rows whose code is among candidates, in checkpoint order.
// 같은 날짜의 이전 실행이 남긴 범위 밖 행은 제외
func (c *Controller[R]) RowsFor(candidates []contracts.Candidate) []R {
	wanted := make(map[string]struct{}, len(candidates))
	for _, cand := range candidates {
		wanted[contracts.NormalizeCode(cand.Code)] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]R, 0, len(c.rows))
	for _, row := range c.rows {
		if _, ok := wanted[contracts.NormalizeCode(c.key(row))]; ok {
			out = append(out, row)
		}
	}
	return out
}

// Len returns the number of distinct keys
func (c *Controller[R]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rows)
}

func (c *Controller[R]) upsert(row R) {
	k := contracts.NormalizeCode(c.key(row))
	if i, ok := c.index[k]; ok {
		c.rows[i] = row
		return
	}
	c.index[k] = len(c.rows)
	c.rows = append(c.rows, row)
}

func (c *Controller[R]) snapshot() []R {
	out := make([]R, len(c.rows))
	copy(out, c.rows)
	return out
}

func (c *Controller[R]) save() error {
	c.sinceSave = 0
	if err := report.WriteCSV(c.path, c.rows); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	c.logger.WithFields(map[string]interface{}{
		"path": c.path,
		"rows": len(c.rows),
	}).Debug("Checkpoint saved")
	return nil
}
