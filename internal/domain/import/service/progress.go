package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const defaultProgressTTL = time.Hour

// Progress is a snapshot of a running or finished sheet import.
type Progress struct {
	JobID        uuid.UUID `json:"jobId"`
	Table        string    `json:"table"`
	Status       string    `json:"status"`
	RowsTotal    int       `json:"rowsTotal"`
	RowsImported int       `json:"rowsImported"`
	RowsSkipped  int       `json:"rowsSkipped"`
	RowsFailed   int       `json:"rowsFailed"`
	Message      string    `json:"message,omitempty"`
}

// Percent is the share of rows already handled.
func (p Progress) Percent() int {
	if p.RowsTotal == 0 {
		return 100
	}
	done := p.RowsImported + p.RowsSkipped + p.RowsFailed
	return min(100, done*100/p.RowsTotal)
}

// ProgressTracker keeps the latest progress of each import in memory.
type ProgressTracker struct {
	c *cache.Cache
}

func NewProgressTracker(ttl time.Duration) *ProgressTracker {
	return &ProgressTracker{c: cache.New(ttl, 2*ttl)}
}

func (t *ProgressTracker) Publish(p Progress) {
	t.c.SetDefault(p.JobID.String(), p)
}

func (t *ProgressTracker) Get(id uuid.UUID) (Progress, bool) {
	v, ok := t.c.Get(id.String())
	if !ok {
		return Progress{}, false
	}
	p, ok := v.(Progress)
	return p, ok
}
