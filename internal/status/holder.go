// Package status keeps the outcome of the latest generation runs for the
// watch-mode HTTP endpoints.
package status

import (
	"sync/atomic"

	"geosite/internal/generator"
)

// Snapshot is what the status endpoint reports.
type Snapshot struct {
	// Last is the most recent run, successful or not.
	Last *generator.Result
	// LastErr is the error of Last, empty when it succeeded.
	LastErr string
	// LastSuccess is the most recent successful run.
	LastSuccess *generator.Result
}

// Holder is safe for concurrent use by one writer and many readers.
type Holder struct {
	value atomic.Pointer[Snapshot]
}

func NewHolder() *Holder {
	h := &Holder{}
	h.value.Store(&Snapshot{})

	return h
}

func (h *Holder) Get() Snapshot {
	return *h.value.Load()
}

// Record stores res as the latest run.
func (h *Holder) Record(res generator.Result, err error) {
	prev := h.value.Load()
	next := &Snapshot{Last: &res, LastSuccess: prev.LastSuccess}
	if err != nil {
		next.LastErr = err.Error()
	} else {
		next.LastSuccess = &res
	}
	h.value.Store(next)
}
