package export

import (
	"strings"
	"unicode"
)

// DefaultFilename is used when a story has no usable title.
const DefaultFilename = "storybook.mp4"

// OutputFilename derives a download filename from the story title.
// Letters, digits, dashes and underscores are kept; runs of anything else
// collapse into single dashes. An empty or fully unusable title falls back
// to DefaultFilename.
func OutputFilename(title string) string {
	var sb strings.Builder
	lastDash := true // Suppress a leading dash
	for _, r := range strings.TrimSpace(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			sb.WriteRune(unicode.ToLower(r))
			lastDash = false
		default:
			if !lastDash {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}

	name := strings.Trim(sb.String(), "-")
	if name == "" {
		return DefaultFilename
	}
	return name + ".mp4"
}
