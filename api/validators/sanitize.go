package validators

import "strings"

// SanitizeString trims surrounding whitespace from a customer-supplied
// field and caps it at maxLen bytes. Truncation can leave a trailing
// space that was interior before the cut, so the result is trimmed
// again before returning.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		trimmed = strings.TrimSpace(trimmed[:maxLen])
	}
	return trimmed
}
