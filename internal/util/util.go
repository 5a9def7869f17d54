// internal/util/util.go
package util

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// WriteFile writes data to a file with 0o644 permissions, creating parent
// directories as needed.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// TruncateRunes truncates a string to a maximum number of runes,
// appending an ellipsis if truncated.
func TruncateRunes(text string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxRunes]) + "…"
}

// Preview collapses all whitespace runs to single spaces and truncates the
// result, for one-line displays of transcript text.
func Preview(text string, maxRunes int) string {
	return TruncateRunes(strings.Join(strings.Fields(text), " "), maxRunes)
}
