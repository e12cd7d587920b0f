// Package sensorcache holds the latest value of every input feed of the pose estimator together
// with its arrival time, so that readers can tell fresh data from stale data.
package sensorcache

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Value is the most recent message of one feed. A new message overwrites the previous one.
// A zero max age means the feed never goes stale once received.
type Value[T any] struct {
	mu       sync.RWMutex
	clock    clock.Clock
	maxAge   time.Duration
	value    T
	received time.Time
	set      bool
}

// NewValue returns an empty value with the given staleness policy.
func NewValue[T any](clk clock.Clock, maxAge time.Duration) *Value[T] {
	if clk == nil {
		clk = clock.New()
	}
	return &Value[T]{clock: clk, maxAge: maxAge}
}

// Set stores val and stamps it with the current time.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = val
	v.received = v.clock.Now()
	v.set = true
}

// Get returns the stored value if it has been received and is still fresh.
func (v *Value[T]) Get() (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.freshLocked() {
		var zero T
		return zero, false
	}
	return v.value, true
}

// Latest returns the stored value regardless of its age.
func (v *Value[T]) Latest() (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value, v.set
}

// Fresh reports whether a value has been received and is not older than the max age.
func (v *Value[T]) Fresh() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.freshLocked()
}

func (v *Value[T]) freshLocked() bool {
	if !v.set {
		return false
	}
	if v.maxAge == 0 {
		return true
	}
	return v.clock.Since(v.received) <= v.maxAge
}

// Age returns how long ago the value was received.
func (v *Value[T]) Age() (time.Duration, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.set {
		return 0, false
	}
	return v.clock.Since(v.received), true
}

// FeedStatus describes the freshness of one feed.
type FeedStatus struct {
	Received bool          `json:"received"`
	Fresh    bool          `json:"fresh"`
	Age      time.Duration `json:"age_ns"`
	MaxAge   time.Duration `json:"max_age_ns"`
}

// Status returns a snapshot of the freshness of the value.
func (v *Value[T]) Status() FeedStatus {
	v.mu.RLock()
	defer v.mu.RUnlock()
	status := FeedStatus{Received: v.set, Fresh: v.freshLocked(), MaxAge: v.maxAge}
	if v.set {
		status.Age = v.clock.Since(v.received)
	}
	return status
}
