package ai

import "strings"

const (
	openingFence = "```typescript"
	closingFence = "```"
)

// Sanitize strips code fences from a model reply wherever they appear and
// trims the result. Applying it twice gives the same string as applying it once.
func Sanitize(raw string) string {
	s := strings.ReplaceAll(raw, openingFence, "")
	s = strings.ReplaceAll(s, closingFence, "")
	return strings.TrimSpace(s)
}

// SanitizeSelector cleans a heal reply down to one selector. A leading fence is
// dropped together with its language tag, whatever the language. The second
// result is false when more than one line is left.
func SanitizeSelector(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, closingFence) {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, closingFence)
		}
	}
	s = Sanitize(s)
	return s, !strings.ContainsAny(s, "\r\n")
}
