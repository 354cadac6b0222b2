// Package scanner walks a directory tree and finds report files.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rumor-ml/commons.systems/reportparse/internal/adapter"
	"github.com/rumor-ml/commons.systems/reportparse/internal/report"
)

// Scanner walks a directory tree and finds report files.
type Scanner struct {
	rootDir string
}

// New creates a scanner for the given root directory.
func New(rootDir string) *Scanner {
	return &Scanner{rootDir: rootDir}
}

// ScanResult is a found file with its metadata.
type ScanResult struct {
	Path     string
	Metadata *adapter.Metadata
}

// Scan walks the directory tree and returns all report files with kind
// and period hints inferred from their names.
func (s *Scanner) Scan() ([]ScanResult, error) {
	var results []ScanResult

	rootDir := s.expandHome(s.rootDir)

	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !s.isReportFile(path) {
			return nil
		}

		meta, err := adapter.NewMetadata(path, time.Now())
		if err != nil {
			return fmt.Errorf("metadata for %s: %w", path, err)
		}
		name := filepath.Base(path)
		meta.SetKind(report.DetectKind(name))
		if hint, _, ok := report.PeriodFromFilename(name); ok {
			meta.SetPeriodHint(hint)
		}

		results = append(results, ScanResult{Path: path, Metadata: meta})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	return results, nil
}

// isReportFile checks the extension against the supported formats.
func (s *Scanner) isReportFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".csv" || ext == ".xlsx" || ext == ".pdf"
}

// expandHome expands ~ to the home directory.
func (s *Scanner) expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
