package dispatch

import (
	"context"
	"sync"
)

// DecisionLog keeps the most recent dispatch decisions in memory for the
// operations API. It is a bounded ring: old decisions fall off the front.
type DecisionLog struct {
	mu   sync.RWMutex
	buf  []Decision
	next int
	full bool
}

// NewDecisionLog creates a log holding up to capacity decisions.
func NewDecisionLog(capacity int) *DecisionLog {
	if capacity <= 0 {
		capacity = 256
	}
	return &DecisionLog{buf: make([]Decision, capacity)}
}

// Record appends a decision, evicting the oldest when full.
func (l *DecisionLog) Record(d Decision) {
	l.mu.Lock()
	l.buf[l.next] = d
	l.next = (l.next + 1) % len(l.buf)
	if l.next == 0 {
		l.full = true
	}
	l.mu.Unlock()
}

// Recent returns the retained decisions, oldest first.
func (l *DecisionLog) Recent() []Decision {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.full {
		out := make([]Decision, l.next)
		copy(out, l.buf[:l.next])
		return out
	}
	out := make([]Decision, 0, len(l.buf))
	out = append(out, l.buf[l.next:]...)
	out = append(out, l.buf[:l.next]...)
	return out
}

// Consume records decisions from ch until ctx is done or ch closes.
func (l *DecisionLog) Consume(ctx context.Context, ch <-chan Decision) {
	for {
		select {
		case d, ok := <-ch:
			if !ok {
				return
			}
			l.Record(d)
		case <-ctx.Done():
			return
		}
	}
}
