package identity

import "strings"

// NormalizeEmail trims surrounding whitespace. Emails are case-sensitive as
// stored, so no case folding happens here.
func NormalizeEmail(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeTags trims entries, drops blanks and duplicates, and keeps the
// first-seen order.
func NormalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
