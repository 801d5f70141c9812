package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// DefaultExcludeDirs are skipped by ScanProject in addition to hidden directories.
var DefaultExcludeDirs = []string{"node_modules", "vendor", "target", "dist", "build", "__pycache__"}

// ScanOptions configures the directory scanning behavior
type ScanOptions struct {
	// Pattern is a regex matched against file names without extension
	Pattern string
	// Extensions restricts the scan to these extensions (case-insensitive)
	Extensions []string
	// Recursive enables recursive directory scanning
	Recursive bool
	// ExcludeDirs lists directory names to skip
	ExcludeDirs []string
	// MaxDepth limits recursion depth (0 = unlimited, 1 = current dir only)
	MaxDepth int
}

// ScanResult contains the results of a directory scan
type ScanResult struct {
	Files  []string // Absolute paths, sorted
	Errors []error  // Non-fatal errors met during the walk
}

// ByExtension counts the scanned files per lower-cased extension.
// Files without an extension are counted under "(none)".
func (r *ScanResult) ByExtension() map[string]int {
	counts := make(map[string]int)
	for _, f := range r.Files {
		ext := strings.ToLower(filepath.Ext(f))
		if ext == "" {
			ext = "(none)"
		}
		counts[ext]++
	}
	return counts
}

// ScanProject walks dir recursively with DefaultExcludeDirs.
func ScanProject(dir string) (*ScanResult, error) {
	return ScanDirectory(dir, ScanOptions{
		Recursive:   true,
		ExcludeDirs: DefaultExcludeDirs,
	})
}

type scanFilter struct {
	pattern    *regexp.Regexp
	extensions map[string]bool
	excluded   map[string]bool
}

func newScanFilter(opts ScanOptions) (*scanFilter, error) {
	f := &scanFilter{
		extensions: make(map[string]bool),
		excluded:   make(map[string]bool),
	}

	if opts.Pattern != "" {
		re, err := regexp.Compile(opts.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		f.pattern = re
	}

	for _, ext := range opts.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.extensions[strings.ToLower(ext)] = true
	}

	for _, name := range opts.ExcludeDirs {
		f.excluded[name] = true
	}
	return f, nil
}

func (f *scanFilter) skipDir(name string) bool {
	return f.excluded[name] || strings.HasPrefix(name, ".")
}

func (f *scanFilter) matchFile(name string) bool {
	ext := filepath.Ext(name)
	if len(f.extensions) > 0 && !f.extensions[strings.ToLower(ext)] {
		return false
	}
	if f.pattern != nil && !f.pattern.MatchString(strings.TrimSuffix(name, ext)) {
		return false
	}
	return true
}

// ScanDirectory scans a directory for files matching the provided options
func ScanDirectory(dir string, opts ScanOptions) (*ScanResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	filter, err := newScanFilter(opts)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{
		Files:  make([]string, 0),
		Errors: make([]error, 0),
	}

	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, err))
			return nil
		}
		if path == dir {
			return nil
		}

		if d.IsDir() {
			if filter.skipDir(d.Name()) || !opts.Recursive {
				return filepath.SkipDir
			}
			if opts.MaxDepth > 0 && depth(dir, path) >= opts.MaxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if !filter.matchFile(d.Name()) {
			return nil
		}

		absPath, err := filepath.Abs(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("failed to resolve path %s: %w", path, err))
			return nil
		}
		result.Files = append(result.Files, absPath)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Strings(result.Files)
	return result, nil
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
