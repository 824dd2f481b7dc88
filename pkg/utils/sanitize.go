package utils

import (
	"strings"
	"unicode/utf8"
)

// maxFilenameLength bounds sanitized names in bytes
const maxFilenameLength = 100

// SanitizeFilename turns name into a single safe path component.
// Characters invalid on Windows or Unix become underscores, runs of underscores collapse,
// and an empty result becomes "untitled".
func SanitizeFilename(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range name {
		if r < 0x20 || strings.ContainsRune(`<>:"/\|?*`, r) {
			r = '_'
		}
		if r == '_' {
			if lastUnderscore {
				continue
			}
			lastUnderscore = true
		} else {
			lastUnderscore = false
		}
		b.WriteRune(r)
	}

	sanitized := strings.Trim(b.String(), "_ ")
	if len(sanitized) > maxFilenameLength {
		cut := maxFilenameLength
		for cut > 0 && !utf8.RuneStart(sanitized[cut]) {
			cut--
		}
		sanitized = strings.Trim(sanitized[:cut], "_ ")
	}

	if sanitized == "" {
		return "untitled"
	}
	return sanitized
}
