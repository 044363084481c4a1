package trace

import "sync"

// Exporter receives the immutable span tree of a finished run, exactly once
// per run, on success and on failure alike.
type Exporter interface {
	Export(root *SpanSnapshot)
}

// NoopExporter discards span trees.
type NoopExporter struct{}

// Export implements Exporter.
func (NoopExporter) Export(*SpanSnapshot) {}

// MemoryExporter retains exported span trees in memory. Intended for tests
// and local inspection; it grows unbounded.
type MemoryExporter struct {
	mu    sync.Mutex
	roots []*SpanSnapshot
}

// NewMemoryExporter constructs an empty MemoryExporter.
func NewMemoryExporter() *MemoryExporter {
	return &MemoryExporter{}
}

// Export implements Exporter.
func (e *MemoryExporter) Export(root *SpanSnapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.roots = append(e.roots, root)
}

// Roots returns all exported span trees in export order.
func (e *MemoryExporter) Roots() []*SpanSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*SpanSnapshot, len(e.roots))
	copy(out, e.roots)
	return out
}

// Last returns the most recently exported span tree, or nil.
func (e *MemoryExporter) Last() *SpanSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.roots) == 0 {
		return nil
	}
	return e.roots[len(e.roots)-1]
}
