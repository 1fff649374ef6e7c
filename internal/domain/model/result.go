package model

import (
	"fmt"
	"time"
)

// ItemKind distinguishes the two batch operations.
type ItemKind string

const (
	ItemPublish ItemKind = "publish"
	ItemDelete  ItemKind = "delete"
)

// ItemResult is the outcome of one unit of work inside a batch. Index is the
// position of the item in the enumerated batch and is unique per batch.
type ItemResult struct {
	Index int
	Kind  ItemKind
	Path  string
	Err   error
}

// OK reports whether the item succeeded.
func (r ItemResult) OK() bool {
	return r.Err == nil
}

// BatchReport aggregates the per-item results of a batch run.
type BatchReport struct {
	Results       []ItemResult
	Published     int
	PublishFailed int
	Deleted       int
	DeleteFailed  int
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Add records a result and updates the counters.
func (r *BatchReport) Add(res ItemResult) {
	r.Results = append(r.Results, res)
	switch res.Kind {
	case ItemPublish:
		if res.OK() {
			r.Published++
		} else {
			r.PublishFailed++
		}
	case ItemDelete:
		if res.OK() {
			r.Deleted++
		} else {
			r.DeleteFailed++
		}
	}
}

// Failures returns the failed items in index order.
func (r BatchReport) Failures() []ItemResult {
	var out []ItemResult
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// Total returns the number of attempted items.
func (r BatchReport) Total() int {
	return r.Published + r.PublishFailed + r.Deleted + r.DeleteFailed
}

// Summary is the user-facing one-line outcome of the batch.
func (r BatchReport) Summary() string {
	msg := fmt.Sprintf("Successfully published %d of %d notes", r.Published, r.Published+r.PublishFailed)
	if attempted := r.Deleted + r.DeleteFailed; attempted > 0 {
		msg += fmt.Sprintf(", deleted %d of %d", r.Deleted, attempted)
	}
	return msg
}

// RunRecord is the persisted summary of a batch run.
type RunRecord struct {
	ID            int64
	Published     int
	PublishFailed int
	Deleted       int
	DeleteFailed  int
	StartedAt     time.Time
	FinishedAt    time.Time
}

// RunRecordFromReport summarises a report for persistence.
func RunRecordFromReport(r BatchReport) RunRecord {
	return RunRecord{
		Published:     r.Published,
		PublishFailed: r.PublishFailed,
		Deleted:       r.Deleted,
		DeleteFailed:  r.DeleteFailed,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
	}
}
