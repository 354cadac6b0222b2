package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rumor-ml/commons.systems/reportparse/internal/adapter"
	"github.com/rumor-ml/commons.systems/reportparse/internal/classify"
	"github.com/rumor-ml/commons.systems/reportparse/internal/identity"
	"github.com/rumor-ml/commons.systems/reportparse/internal/pipeline"
	"github.com/rumor-ml/commons.systems/reportparse/internal/report"
	"github.com/rumor-ml/commons.systems/reportparse/internal/scanner"
	"github.com/rumor-ml/commons.systems/reportparse/internal/ui"
)

const version = "0.1.0"

var (
	versionFlag = flag.Bool("version", false, "Show version")

	inputPath = flag.String("input", "", "Input report file or directory (required)")
	outputDir = flag.String("output", "", "Output directory (default: next to each input file)")
	dryRun    = flag.Bool("dry-run", false, "Show what would be converted without writing")
	verbose   = flag.Bool("verbose", false, "Show detailed conversion logs")

	kindFlag     = flag.String("kind", "", "Report kind override: balance_sheet, profit_loss, cash_flow, trial_balance, general_ledger, aged_payables, aged_receivables")
	keywordsFile = flag.String("keywords", "", "Custom keyword vocabulary YAML file")
	lookupURL    = flag.String("lookup-url", "", "Account lookup service base URL")
	accountsDB   = flag.String("accounts-db", "", "SQLite chart-of-accounts database for account lookup")
	sharedIDs    = flag.Bool("shared-ids", false, "Share account identifiers across all files in the batch")
	workers      = flag.Int("workers", pipeline.DefaultWorkers, "Concurrent file conversions")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `reportparse - Hierarchical report to JSON converter

Usage:
  reportparse [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  # Convert one report to stdout
  reportparse -input "April 2025 Balance Sheet.csv"

  # Convert a directory of reports
  reportparse -input ~/reports -output ~/reports/json

  # Force the kind when the filename gives no hint
  reportparse -input export.csv -kind trial_balance

`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("reportparse version %s\n", version)
		os.Exit(0)
	}

	if *inputPath == "" {
		fmt.Fprintf(os.Stderr, "Error: -input flag is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	opts := pipeline.Options{
		SharedIdentity: *sharedIDs,
		Workers:        *workers,
	}

	if *kindFlag != "" {
		kind := report.Kind(*kindFlag)
		if err := kind.Validate(); err != nil {
			return err
		}
		opts.Kind = kind
	}

	if *keywordsFile != "" {
		vocab, err := classify.LoadFromFile(*keywordsFile)
		if err != nil {
			return fmt.Errorf("failed to load keywords file: %w", err)
		}
		opts.Vocabulary = vocab
		if *verbose {
			fmt.Fprintf(os.Stderr, "Loaded custom vocabulary from %s\n", *keywordsFile)
		}
	}

	lookup, closeLookup, err := buildLookup(ctx)
	if err != nil {
		return err
	}
	if closeLookup != nil {
		defer closeLookup()
	}
	opts.Lookup = lookup

	p, err := pipeline.New(opts)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	info, err := os.Stat(*inputPath)
	if err != nil {
		return fmt.Errorf("failed to stat input: %w", err)
	}

	if !info.IsDir() {
		return convertSingle(ctx, p)
	}
	return convertBatch(ctx, p)
}

// buildLookup wires the optional account lookup backend. HTTP and
// SQLite are mutually exclusive.
func buildLookup(ctx context.Context) (identity.Lookup, func() error, error) {
	if *lookupURL != "" && *accountsDB != "" {
		return nil, nil, fmt.Errorf("-lookup-url and -accounts-db are mutually exclusive")
	}
	if *lookupURL != "" {
		l := identity.NewHTTPLookup(*lookupURL)
		if !l.Available(ctx) {
			ui.Warning(fmt.Sprintf("Lookup service at %s is not responding; falling back to sequential identifiers", *lookupURL))
			return nil, nil, nil
		}
		return l, nil, nil
	}
	if *accountsDB != "" {
		l, err := identity.OpenSQLiteLookup(*accountsDB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open accounts database: %w", err)
		}
		return l, l.Close, nil
	}
	return nil, nil, nil
}

func convertSingle(ctx context.Context, p *pipeline.Pipeline) error {
	meta, err := adapter.NewMetadata(*inputPath, time.Now())
	if err != nil {
		return err
	}
	name := filepath.Base(*inputPath)
	meta.SetKind(report.DetectKind(name))
	if hint, _, ok := report.PeriodFromFilename(name); ok {
		meta.SetPeriodHint(hint)
	}

	if *dryRun {
		fmt.Printf("Dry run complete. Would convert %s (kind: %s)\n", *inputPath, meta.Kind())
		return nil
	}

	result, err := p.ConvertFile(ctx, *inputPath, meta)
	if err != nil {
		return err
	}
	reportAnomalies(result)

	data, err := json.MarshalIndent(result.Reports, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	if *outputDir == "" {
		fmt.Println(string(data))
		return nil
	}
	out := outputPath(*inputPath)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	ui.Success(fmt.Sprintf("Output written to %s", out))
	return nil
}

func convertBatch(ctx context.Context, p *pipeline.Pipeline) error {
	if !*verbose {
		ui.Header("Converting Financial Reports")
		ui.Step(1, 3, "Scanning directory")
	} else {
		fmt.Fprintf(os.Stderr, "Scanning directory: %s\n", *inputPath)
	}

	files, err := scanner.New(*inputPath).Scan()
	if err != nil {
		return fmt.Errorf("failed to scan directory %s: %w", *inputPath, err)
	}

	if *verbose {
		fmt.Fprintf(os.Stderr, "Found %d report files\n", len(files))
		for _, f := range files {
			fmt.Fprintf(os.Stderr, "  - %s (kind: %s, period: %s, found: %s)\n",
				f.Path, f.Metadata.Kind(), f.Metadata.PeriodHint(),
				f.Metadata.DetectedAt().Format(time.RFC3339))
		}
	} else {
		ui.Success(fmt.Sprintf("Found %d report files", len(files)))
	}

	if *dryRun {
		fmt.Printf("Dry run complete. Would convert %d files.\n", len(files))
		return nil
	}

	if len(files) == 0 {
		return fmt.Errorf("no report files found in %s\n\nPlease check:\n  - Directory path is correct\n  - Files have supported extensions (.csv, .xlsx, .pdf)\n  - You have read permissions on the directory and files", *inputPath)
	}

	if !*verbose {
		ui.Step(2, 3, "Converting reports")
	}

	results, failures := p.ConvertAll(ctx, files)

	if !*verbose {
		ui.Step(3, 3, "Writing output")
	}

	if *outputDir != "" {
		if err := os.MkdirAll(*outputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	written := 0
	for _, result := range results {
		reportAnomalies(result)

		data, err := json.MarshalIndent(result.Reports, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode output for %s: %w", result.Path, err)
		}
		out := outputPath(result.Path)
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		written++
		if *verbose {
			fmt.Fprintf(os.Stderr, "  Converted %s -> %s\n", result.Path, out)
		}
	}

	ui.Success(fmt.Sprintf("Converted %d of %d files", written, len(files)))

	if len(failures) > 0 {
		ui.Error(fmt.Sprintf("%d file(s) failed:", len(failures)))
		for _, f := range failures {
			ui.Error(fmt.Sprintf("  %s: %v", f.Path, f.Err))
		}
		return fmt.Errorf("%d of %d files failed to convert", len(failures), len(files))
	}
	return nil
}

// reportAnomalies surfaces non-fatal conversion findings.
func reportAnomalies(result *pipeline.Result) {
	for _, m := range result.Mismatches {
		ui.Warning(fmt.Sprintf("%s: %s", filepath.Base(result.Path), m.String()))
	}
	if *verbose {
		for _, w := range result.Warnings {
			fmt.Fprintf(os.Stderr, "  %s row %d: %s\n", filepath.Base(result.Path), w.RawIndex, w.Message)
		}
	}
}

// outputPath derives the JSON output path for one input file.
func outputPath(input string) string {
	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".json"
	if *outputDir != "" {
		return filepath.Join(*outputDir, name)
	}
	return filepath.Join(filepath.Dir(input), name)
}
