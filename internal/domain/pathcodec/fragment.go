package pathcodec

import "strings"

const fragmentLength = 8

// ExtractSourceGroupFragment derives the short disambiguator embedded in
// storage file names from a source-group UUID: lowercase, hyphens stripped,
// truncated to the first 8 hex characters. Empty input yields empty output,
// which the codec treats as "no fragment". The function is idempotent on
// already-sanitized input.
func ExtractSourceGroupFragment(sourceGroupID string) string {
	if sourceGroupID == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range strings.ToLower(sourceGroupID) {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') {
			b.WriteRune(r)
			if b.Len() == fragmentLength {
				break
			}
		}
	}
	return b.String()
}

// isFragment reports whether a filename token looks like a sanitized
// source-group fragment.
func isFragment(tok string) bool {
	if len(tok) != fragmentLength {
		return false
	}
	for _, r := range tok {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
