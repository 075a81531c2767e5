package skill

import (
	"fmt"
	"regexp"
)

// secretPatterns match credential-shaped literals that should never ship
// inside a skill document. Matches are warnings; policy lives upstream.
var secretPatterns = []struct {
	label string
	re    *regexp.Regexp
}{
	{"AWS access key", regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)},
	{"private key block", regexp.MustCompile(`-----BEGIN (?:RSA |EC |OPENSSH )?PRIVATE KEY-----`)},
	{"OpenAI-style API key", regexp.MustCompile(`\bsk-[A-Za-z0-9]{20,}\b`)},
	{"GitHub token", regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`)},
	{"hardcoded API key", regexp.MustCompile(`(?i)\b(?:api[_-]?key|api[_-]?secret|access[_-]?token)\b\s*[:=]\s*["']?[A-Za-z0-9_\-]{16,}`)},
}

// injectionPatterns match shell constructs in examples that execute
// arbitrary remote or destructive commands.
var injectionPatterns = []struct {
	label string
	re    *regexp.Regexp
}{
	{"pipe-to-shell", regexp.MustCompile(`(?i)\b(?:curl|wget)\b[^\n|]*\|\s*(?:ba|z)?sh\b`)},
	{"recursive delete", regexp.MustCompile(`\brm\s+-[a-z]*rf?\s+[/~]`)},
	{"eval of variable", regexp.MustCompile(`\beval\s+["']?\$`)},
}

// scanForSecrets checks the whole document for credential-like literals.
func scanForSecrets(content string) []string {
	var warnings []string
	for _, p := range secretPatterns {
		if p.re.MatchString(content) {
			warnings = append(warnings, fmt.Sprintf("possible %s in skill content", p.label))
		}
	}
	return warnings
}

// scanExamples checks example commands for executable-injection shapes.
func scanExamples(examples []string) []string {
	var warnings []string
	for i, ex := range examples {
		for _, p := range injectionPatterns {
			if p.re.MatchString(ex) {
				warnings = append(warnings, fmt.Sprintf("example %d contains %s pattern", i+1, p.label))
			}
		}
	}
	return warnings
}
