package diagnostics

import "sync"

// Bag collects diagnostics during a parse or evaluation.
type Bag struct {
	mu          sync.Mutex
	diagnostics []*Diagnostic
	errorCount  int
	warnCount   int
}

// NewBag creates an empty diagnostic bag.
func NewBag() *Bag {
	return &Bag{}
}

// Add appends a diagnostic to the bag.
func (b *Bag) Add(d *Diagnostic) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.diagnostics = append(b.diagnostics, d)
	switch d.Severity {
	case Error:
		b.errorCount++
	case Warning:
		b.warnCount++
	}
}

// HasErrors reports whether any error diagnostic was collected.
func (b *Bag) HasErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errorCount > 0
}

// ErrorCount returns the number of errors collected.
func (b *Bag) ErrorCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errorCount
}

// WarningCount returns the number of warnings collected.
func (b *Bag) WarningCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.warnCount
}

// Diagnostics returns the collected diagnostics in insertion order.
func (b *Bag) Diagnostics() []*Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Diagnostic, len(b.diagnostics))
	copy(out, b.diagnostics)
	return out
}

// ResolveSpans resolves line/column positions for every collected diagnostic.
func (b *Bag) ResolveSpans(source []byte) {
	for _, d := range b.Diagnostics() {
		d.ResolveSpans(source)
	}
}
