package delivery

import (
	"strings"

	"example.com/siteforms/internal/domain"
)

const contactBaseTag = "website-contact"

var leadTypeTags = map[string]string{
	"white_paper":        "white-paper-download",
	"trip_planner":       "trip-planner",
	"newsletter":         "newsletter-subscriber",
	"consultation":       "consultation-request",
	"quote":              "quote-request",
	"event_registration": "event-registration",
}

// Slug lower-cases s and collapses every run of non-alphanumerics into one hyphen.
func Slug(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// SplitName puts the first whitespace-separated token in first and the rest in last.
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func ContactTags(service string) []string {
	tags := []string{contactBaseTag}
	if s := Slug(service); s != "" {
		tags = append(tags, "service-"+s)
	}
	return tags
}

func LeadTags(l domain.LeadSubmission) []string {
	primary, ok := leadTypeTags[l.Type]
	if !ok {
		primary = strings.ReplaceAll(l.Type, "_", "-")
	}
	tags := []string{primary}

	switch l.Type {
	case "white_paper":
		if s := Slug(l.Extras.Text(domain.ExtraService)); s != "" {
			tags = append(tags, "service-"+s)
		}
	case "trip_planner":
		if s := Slug(l.Extras.Text(domain.ExtraTripType)); s != "" {
			tags = append(tags, "trip-"+s)
		}
	}
	return tags
}
