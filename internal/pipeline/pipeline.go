// Package pipeline orchestrates the full conversion: adapter selection,
// header location, classification, tree assembly, and serialization.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rumor-ml/commons.systems/reportparse/internal/adapter"
	"github.com/rumor-ml/commons.systems/reportparse/internal/adapter/delimited"
	"github.com/rumor-ml/commons.systems/reportparse/internal/adapter/grid"
	"github.com/rumor-ml/commons.systems/reportparse/internal/adapter/pdftext"
	"github.com/rumor-ml/commons.systems/reportparse/internal/build"
	"github.com/rumor-ml/commons.systems/reportparse/internal/classify"
	"github.com/rumor-ml/commons.systems/reportparse/internal/domain"
	"github.com/rumor-ml/commons.systems/reportparse/internal/identity"
	"github.com/rumor-ml/commons.systems/reportparse/internal/period"
	"github.com/rumor-ml/commons.systems/reportparse/internal/report"
	"github.com/rumor-ml/commons.systems/reportparse/internal/scanner"
	"github.com/rumor-ml/commons.systems/reportparse/internal/serialize"
)

// DefaultWorkers bounds the batch worker pool.
const DefaultWorkers = 4

// Options configures a pipeline.
type Options struct {
	// Lookup resolves account names to external identifiers. Nil means
	// sequential identifiers only.
	Lookup identity.Lookup

	// SharedIdentity reuses one identity table across all files in a
	// batch, so the same account name gets the same identifier in
	// every document. Off by default: each document numbers its own.
	SharedIdentity bool

	// Kind overrides filename-based kind detection for every file.
	Kind report.Kind

	// Vocabulary overrides the embedded keyword vocabulary.
	Vocabulary *classify.Vocabulary

	// Clock feeds serialization timestamps and period year fallback.
	Clock func() time.Time

	// Workers bounds batch concurrency. Zero means DefaultWorkers.
	Workers int
}

// Result is the outcome of converting one document.
type Result struct {
	RunID      uuid.UUID
	Path       string
	Kind       report.Kind
	Adapter    string
	Reports    []serialize.PeriodReport
	Mismatches []domain.Mismatch
	Warnings   []build.Warning
}

// ConvertError pairs a failed document with its error. Documents fail
// independently; one bad file never aborts the batch.
type ConvertError struct {
	Path string
	Err  error
}

func (e *ConvertError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ConvertError) Unwrap() error { return e.Err }

// Pipeline converts report documents. Safe for concurrent use; the
// shared identity table is the only cross-document state and guards
// itself.
type Pipeline struct {
	opts       Options
	registry   *adapter.Registry
	vocab      *classify.Vocabulary
	sharedTbl  *identity.Table
	serializer *serialize.Serializer
}

// New creates a pipeline with the built-in adapters registered.
func New(opts Options) (*Pipeline, error) {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}

	vocab := opts.Vocabulary
	if vocab == nil {
		loaded, err := classify.LoadEmbedded()
		if err != nil {
			return nil, fmt.Errorf("load embedded vocabulary: %w", err)
		}
		vocab = loaded
	}

	reg := adapter.NewRegistry()
	reg.Register(delimited.New())
	reg.Register(grid.New())
	reg.Register(pdftext.New())

	ser := serialize.New()
	ser.Clock = opts.Clock

	p := &Pipeline{
		opts:       opts,
		registry:   reg,
		vocab:      vocab,
		serializer: ser,
	}
	if opts.SharedIdentity {
		p.sharedTbl = identity.NewTable()
	}
	return p, nil
}

// Registry exposes the adapter registry for listing and extension.
func (p *Pipeline) Registry() *adapter.Registry { return p.registry }

// resolveKind picks the report kind for a file: explicit override
// first, then the filename inference.
func (p *Pipeline) resolveKind(meta *adapter.Metadata) (report.Kind, error) {
	if p.opts.Kind != report.KindUnknown {
		return p.opts.Kind, nil
	}
	if meta.Kind() != report.KindUnknown {
		return meta.Kind(), nil
	}
	return report.KindUnknown, fmt.Errorf("cannot infer report kind from file name %q; pass an explicit kind", meta.FilePath())
}

// ConvertFile converts one document end to end.
func (p *Pipeline) ConvertFile(ctx context.Context, path string, meta *adapter.Metadata) (*Result, error) {
	kind, err := p.resolveKind(meta)
	if err != nil {
		return nil, err
	}

	a, err := p.registry.Find(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	rows, err := a.Extract(ctx, f, meta)
	if err != nil {
		return nil, fmt.Errorf("adapter %s: %w", a.Name(), err)
	}

	periods, dataStart, skipped, err := period.LocateHeader(rows, p.opts.Clock())
	if err != nil {
		return nil, fmt.Errorf("locate period header: %w", err)
	}

	// Unparseable header columns are treated as noise, but the caller
	// hears about each one.
	warnings := make([]build.Warning, 0, len(skipped))
	for _, serr := range skipped {
		w := build.Warning{Message: fmt.Sprintf("skipped column: %v", serr)}
		var pe *period.ParseError
		if errors.As(serr, &pe) {
			w.RawIndex = pe.Row
		}
		warnings = append(warnings, w)
	}

	classifier := classify.New(p.vocab)
	classified := classifier.Classify(rows[dataStart:])

	table := p.sharedTbl
	if table == nil {
		table = identity.NewTable()
	}
	resolver := identity.NewResolver(table, p.opts.Lookup)

	built, err := build.New(resolver).Build(ctx, classified, periods)
	if err != nil {
		return nil, fmt.Errorf("assemble trees: %w", err)
	}

	return &Result{
		RunID:      uuid.New(),
		Path:       path,
		Kind:       kind,
		Adapter:    a.Name(),
		Reports:    p.serializer.Serialize(kind, built.Trees),
		Mismatches: built.Mismatches,
		Warnings:   append(warnings, built.Warnings...),
	}, nil
}

// ConvertAll converts a batch with a bounded worker pool. Results come
// back in input order; failed documents are reported separately and do
// not stop the rest.
func (p *Pipeline) ConvertAll(ctx context.Context, files []scanner.ScanResult) ([]*Result, []ConvertError) {
	results := make([]*Result, len(files))
	errs := make([]error, len(files))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], errs[i] = p.ConvertFile(ctx, files[i].Path, files[i].Metadata)
			}
		}()
	}

	for i := range files {
		select {
		case <-ctx.Done():
			errs[i] = ctx.Err()
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	converted := results[:0:0]
	var failures []ConvertError
	for i, r := range results {
		if errs[i] != nil {
			failures = append(failures, ConvertError{Path: files[i].Path, Err: errs[i]})
			continue
		}
		converted = append(converted, r)
	}
	return converted, failures
}
