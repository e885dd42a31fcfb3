package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func rels(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Rel
	}
	return out
}

func TestWalkerIncludesAndExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "readme.md")
	writeFile(t, root, "notes/ideas.md")
	writeFile(t, root, "notes/data.csv")
	writeFile(t, root, "vendor/pkg/doc.md")

	w := NewWalker([]string{"**/*.md"}, []string{"vendor/**"})
	files, err := w.Walk(root)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	got := rels(files)
	if len(got) != 2 {
		t.Fatalf("Walk = %v, want 2 markdown files", got)
	}
	for _, rel := range got {
		if rel == "notes/data.csv" || rel == "vendor/pkg/doc.md" {
			t.Fatalf("Walk selected excluded file %s", rel)
		}
	}
}

func TestWalkerDefaultsToEverything(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt")
	writeFile(t, root, "b/c.txt")

	w := NewWalker(nil, nil)
	files, err := w.Walk(root)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("Walk = %v, want 2 files", rels(files))
	}
}

func TestWalkerSkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.md")
	writeFile(t, root, ".git/objects/blob.md")

	w := NewWalker([]string{"**/*.md"}, []string{"**/.git/**", ".git/**"})
	files, err := w.Walk(root)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if got := rels(files); len(got) != 1 || got[0] != "keep.md" {
		t.Fatalf("Walk = %v, want [keep.md]", got)
	}
}
