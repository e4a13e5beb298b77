package words

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSplitDropsEmptyTokens(t *testing.T) {
	got := Split("  the quick\tbrown\n\nfox  ")
	want := []string{"the", "quick", "brown", "fox"}
	if len(got) != len(want) {
		t.Fatalf("expected %d words, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("word %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestCountMatchesSplit(t *testing.T) {
	for _, text := range []string{"", " ", "hello", "hello wor", "hello ", " a  b\tc\n", "naïve café"} {
		if got, want := Count(text), len(Split(text)); got != want {
			t.Fatalf("Count(%q) = %d, Split gives %d", text, got, want)
		}
	}
}

func TestLoadRejectsUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.docx")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for .docx upload")
	}
}

func TestLoadNormalizesWhitespace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "story.txt")
	if err := os.WriteFile(path, []byte("Once upon\na  time.\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	content, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if content != "Once upon a time." {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blank.md")
	if err := os.WriteFile(path, []byte(" \n\t"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}

func TestTitleFromPath(t *testing.T) {
	if got := TitleFromPath("/tmp/moby-dick.txt"); got != "Moby-dick" {
		t.Fatalf("unexpected title %q", got)
	}
	if got := TitleFromPath("émile.tar.txt"); got != "Émile" {
		t.Fatalf("unexpected title %q", got)
	}
}
