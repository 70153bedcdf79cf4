// Package usage accounts for the tokens spent generating posts.
package usage

import "sync"

// Exchange is the token cost of one request to a generation backend.
type Exchange struct {
	Attempt      int // Zero-based attempt index within its generation.
	InputTokens  int
	OutputTokens int
}

// Tokens returns input plus output tokens.
func (e Exchange) Tokens() int {
	return e.InputTokens + e.OutputTokens
}

// Summary aggregates every exchange recorded by a Tracker.
type Summary struct {
	Exchanges    int
	Retries      int // Exchanges made for an attempt after the first.
	InputTokens  int
	OutputTokens int
}

// Tracker keeps running totals and the most recent exchange.
// It is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	last    Exchange
	summary Summary
}

// Reporter exposes a token usage tracker.
type Reporter interface {
	UsageTracker() *Tracker
}

// Record adds one exchange.
func (t *Tracker) Record(e Exchange) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = e
	t.summary.Exchanges++
	if e.Attempt > 0 {
		t.summary.Retries++
	}
	t.summary.InputTokens += e.InputTokens
	t.summary.OutputTokens += e.OutputTokens
}

// Last returns the most recent exchange. The bool is false before the
// first Record.
func (t *Tracker) Last() (Exchange, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.last, t.summary.Exchanges > 0
}

// Summary returns the totals so far.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.summary
}
