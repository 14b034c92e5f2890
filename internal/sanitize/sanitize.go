// Package sanitize strips markup and script vectors from free-text form input.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// StrictPolicy keeps no elements and no attributes; script/style bodies are dropped.
	policy = bluemonday.StrictPolicy()

	javascriptScheme = regexp.MustCompile(`(?i)javascript\s*:`)
	eventHandlerAttr = regexp.MustCompile(`(?i)on\w+\s*=`)

	// Only these entities are turned back into literal characters. &lt; and &gt;
	// stay encoded: decoding them would reopen the markup the policy just removed.
	// The replacer runs in a single pass so "&amp;#34;" becomes "&#34;", not `"`.
	restoreLiterals = strings.NewReplacer(
		"&amp;", "&",
		"&#34;", `"`,
		"&#39;", "'",
	)
)

// Text returns s with all markup removed, javascript: schemes and inline
// event-handler patterns neutralized, and surrounding whitespace trimmed.
func Text(s string) string {
	if s == "" {
		return ""
	}
	out := policy.Sanitize(s)
	out = restoreLiterals.Replace(out)
	out = removeAll(javascriptScheme, out)
	out = removeAll(eventHandlerAttr, out)
	return strings.TrimSpace(out)
}

// removeAll deletes matches until none remain, so nested payloads such as
// "jajavascript:vascript:" cannot reassemble after a single pass.
func removeAll(re *regexp.Regexp, s string) string {
	for re.MatchString(s) {
		s = re.ReplaceAllString(s, "")
	}
	return s
}
