// Package eventstest provides an in-memory events.Publisher for tests.
package eventstest

import (
	"context"
	"sync"
)

// Recorder keeps published events in memory.
type Recorder struct {
	mu       sync.Mutex
	keys     []string
	payloads []any
}

func (r *Recorder) PublishJSON(_ context.Context, key string, v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	r.payloads = append(r.payloads, v)
	return nil
}

// Keys returns the routing keys published so far.
func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

// Payloads returns the published values in order.
func (r *Recorder) Payloads() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.payloads...)
}

func (r *Recorder) Close() error { return nil }
