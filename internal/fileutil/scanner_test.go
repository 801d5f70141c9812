package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTree(t *testing.T, root string, files []string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte("content"), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}
}

func relNames(t *testing.T, root string, files []string) []string {
	t.Helper()
	absRoot, err := filepath.Abs(root)
	if err != nil {
		t.Fatal(err)
	}
	out := make([]string, len(files))
	for i, f := range files {
		rel, err := filepath.Rel(absRoot, f)
		if err != nil {
			t.Fatal(err)
		}
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, []string{
		"main.go",
		"README.md",
		"Setup.MD",
		"task-001.md",
		"pkg/util.go",
		"pkg/deep/inner.go",
		".git/config",
		"node_modules/lib.js",
	})

	tests := []struct {
		name string
		opts ScanOptions
		want []string
	}{
		{
			name: "top level only",
			opts: ScanOptions{},
			want: []string{"README.md", "Setup.MD", "main.go", "task-001.md"},
		},
		{
			name: "recursive skips hidden and excluded",
			opts: ScanOptions{Recursive: true, ExcludeDirs: []string{"node_modules"}},
			want: []string{"README.md", "Setup.MD", "main.go", "pkg/deep/inner.go", "pkg/util.go", "task-001.md"},
		},
		{
			name: "extension filter is case-insensitive",
			opts: ScanOptions{Extensions: []string{"md"}},
			want: []string{"README.md", "Setup.MD", "task-001.md"},
		},
		{
			name: "pattern matches name without extension",
			opts: ScanOptions{Pattern: `^task-\d+$`},
			want: []string{"task-001.md"},
		},
		{
			name: "max depth",
			opts: ScanOptions{Recursive: true, MaxDepth: 2, Extensions: []string{".go"}, ExcludeDirs: []string{"node_modules"}},
			want: []string{"main.go", "pkg/util.go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ScanDirectory(root, tt.opts)
			if err != nil {
				t.Fatalf("ScanDirectory() error = %v", err)
			}
			got := relNames(t, root, result.Files)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("files = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScanDirectory_Errors(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ScanDirectory(filepath.Join(root, "missing"), ScanOptions{}); err == nil {
		t.Error("expected error for missing directory")
	}
	if _, err := ScanDirectory(file, ScanOptions{}); err == nil {
		t.Error("expected error for file path")
	}
	if _, err := ScanDirectory(root, ScanOptions{Pattern: "("}); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestScanProject(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, []string{
		"main.go",
		"main_test.go",
		"Makefile",
		"web/app.ts",
		"vendor/dep/dep.go",
		"target/debug/out",
		".cache/blob",
	})

	result, err := ScanProject(root)
	if err != nil {
		t.Fatalf("ScanProject() error = %v", err)
	}
	if len(result.Files) != 4 {
		t.Fatalf("got %d files, want 4: %v", len(result.Files), result.Files)
	}

	counts := result.ByExtension()
	want := map[string]int{".go": 2, ".ts": 1, "(none)": 1}
	if len(counts) != len(want) {
		t.Fatalf("ByExtension() = %v, want %v", counts, want)
	}
	for ext, n := range want {
		if counts[ext] != n {
			t.Errorf("counts[%q] = %d, want %d", ext, counts[ext], n)
		}
	}
}
