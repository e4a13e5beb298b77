package words

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrEmptyFile is returned when an uploaded file has no words.
var ErrEmptyFile = errors.New("file has no words")

var allowedExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// Load reads a passage from a text file. Only .txt and .md files are accepted.
func Load(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("unsupported file type %q (allowed: .txt, .md)", ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file %s is not valid UTF-8", path)
	}
	content := normalize(string(data))
	if Count(content) == 0 {
		return "", ErrEmptyFile
	}
	return content, nil
}

// TitleFromPath derives a display title from a file name: the stem with its
// first letter capitalized.
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	r, size := utf8.DecodeRuneInString(base)
	if r == utf8.RuneError {
		return base
	}
	return string(unicode.ToUpper(r)) + base[size:]
}

// normalize collapses line breaks and tabs into single spaces so the typed
// text matches what the window shows.
func normalize(content string) string {
	return Join(Split(content))
}
