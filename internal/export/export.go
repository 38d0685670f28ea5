// Package export writes generated study material to plain text files.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ErrEmpty is returned when there is nothing to write.
var ErrEmpty = errors.New("nothing to export")

// Slug turns a title into a lowercase file name stem.
func Slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "export"
	}
	if len(s) > 60 {
		s = strings.TrimSuffix(s[:60], "-")
	}
	return s
}

// WriteText writes heading and body to dir/<slug>.txt and returns the path.
// An existing file is never overwritten; a numeric suffix is added instead.
func WriteText(dir, heading, body string) (string, error) {
	if strings.TrimSpace(body) == "" {
		return "", ErrEmpty
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	stem := Slug(heading)
	content := heading + "\n" + strings.Repeat("=", len([]rune(heading))) + "\n\n" + strings.TrimSpace(body) + "\n"

	for i := 0; i < 1000; i++ {
		name := stem + ".txt"
		if i > 0 {
			name = fmt.Sprintf("%s-%d.txt", stem, i)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", path, err)
		}
		if _, err := f.WriteString(content); err != nil {
			f.Close()
			return "", fmt.Errorf("write %s: %w", path, err)
		}
		return path, f.Close()
	}
	return "", fmt.Errorf("no free file name for %q in %s", stem, dir)
}
