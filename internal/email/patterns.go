package email

import "strings"

// Generic mailbox prefixes most small businesses actually use, most common
// first.
var patternPrefixes = []string{"info", "contact", "hello", "office"}

// PatternCandidates lists every guess in likelihood order: generic prefixes
// plus the first token of the business name ("joes" for "Joe's Plumbing").
// Returns nil when no plausible guess exists.
func PatternCandidates(businessName, domain string) []string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" || !strings.Contains(domain, ".") {
		return nil
	}

	out := make([]string, 0, len(patternPrefixes)+1)
	for _, p := range patternPrefixes {
		out = append(out, p+"@"+domain)
	}
	if tok := firstNameToken(businessName); tok != "" && !contains(patternPrefixes, tok) {
		out = append(out, tok+"@"+domain)
	}
	return out
}

func firstNameToken(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, r := range fields[0] {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	tok := b.String()
	if len(tok) < 3 {
		return ""
	}
	return tok
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
