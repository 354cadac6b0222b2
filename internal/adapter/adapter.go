// Package adapter defines the strategy interface for source format
// adapters and the registry that picks one per file.
package adapter

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rumor-ml/commons.systems/reportparse/internal/domain"
	"github.com/rumor-ml/commons.systems/reportparse/internal/report"
)

// Metadata carries file-level context into an adapter: the path, the
// report kind inferred from the file name, and an optional period hint.
// Construct with NewMetadata; optional fields are set afterward.
type Metadata struct {
	filePath   string
	kind       report.Kind
	periodHint string
	detectedAt time.Time
}

// NewMetadata creates validated metadata for one source file.
func NewMetadata(filePath string, detectedAt time.Time) (*Metadata, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	if detectedAt.IsZero() {
		return nil, fmt.Errorf("detected time cannot be zero")
	}
	return &Metadata{filePath: filePath, detectedAt: detectedAt}, nil
}

// FilePath returns the source file path.
func (m *Metadata) FilePath() string { return m.filePath }

// Kind returns the report kind inferred from the file name.
// KindUnknown when nothing matched.
func (m *Metadata) Kind() report.Kind { return m.kind }

// PeriodHint returns the YYYY-MM hint from the file name, or "".
func (m *Metadata) PeriodHint() string { return m.periodHint }

// DetectedAt returns when the scanner found the file.
func (m *Metadata) DetectedAt() time.Time { return m.detectedAt }

// SetKind sets the report kind.
func (m *Metadata) SetKind(k report.Kind) { m.kind = k }

// SetPeriodHint sets the period hint.
func (m *Metadata) SetPeriodHint(hint string) { m.periodHint = hint }

// Adapter is the strategy interface for source format adapters.
type Adapter interface {
	// Name returns the adapter identifier (e.g. "delimited", "grid")
	Name() string

	// CanParse checks whether this adapter handles the file, given its
	// path and the first bytes of its content
	CanParse(path string, header []byte) bool

	// Extract reads the file into the flat row sequence, preserving
	// source order and cell text verbatim
	Extract(ctx context.Context, r io.Reader, meta *Metadata) ([]domain.Row, error)
}

// Registry holds all registered adapters.
type Registry struct {
	adapters []Adapter
}

// NewRegistry creates an empty registry. Built-in adapters are
// registered by the caller so the registry stays free of import cycles.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an adapter. Registration order is match order.
func (r *Registry) Register(a Adapter) {
	r.adapters = append(r.adapters, a)
}

// headerSniffLen is enough to catch magic numbers (%PDF, PK) and the
// first line of a delimited file.
const headerSniffLen = 512

// Find returns the first adapter that claims the file. Reads the first
// bytes for content sniffing; short files are fine, adapters receive
// whatever was read.
func (r *Registry) Find(path string) (Adapter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, headerSniffLen)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}
	header = header[:n]

	for _, a := range r.adapters {
		if a.CanParse(path, header) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("no adapter found for file %s (registered: %s)",
		path, strings.Join(r.ListAdapters(), ", "))
}

// ListAdapters returns registered adapter names.
func (r *Registry) ListAdapters() []string {
	names := make([]string, len(r.adapters))
	for i, a := range r.adapters {
		names[i] = a.Name()
	}
	return names
}
