package shared

import "strings"

// SanitizeFilename replaces characters that are invalid or awkward in
// filenames with fullwidth lookalikes, matching the substitutions yt-dlp
// applies when it writes output files. Titles must pass through this before
// being compared against directory contents.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, c := range name {
		switch c {
		case '<', '>', ':', '"', '\\', '|', '*', '“', '”':
			b.WriteRune('＂')
		case '?', '？':
			b.WriteRune('？')
		case '/':
			b.WriteRune('⧸')
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}
