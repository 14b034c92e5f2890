package delivery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"example.com/siteforms/internal/domain"
)

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Web Design":         "web-design",
		"  Audio / Video!! ": "audio-video",
		"Live-Streaming 2.0": "live-streaming-2-0",
		"":                   "",
		"---":                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestSplitName(t *testing.T) {
	first, last := SplitName("  Mary   Ann  Jones ")
	assert.Equal(t, "Mary", first)
	assert.Equal(t, "Ann Jones", last)

	first, last = SplitName("Cher")
	assert.Equal(t, "Cher", first)
	assert.Empty(t, last)
}

func TestLeadTags(t *testing.T) {
	trip := domain.LeadSubmission{Type: "trip_planner", Extras: domain.Extras{
		domain.ExtraTripType: {Text: "Holy Land"},
	}}
	assert.Equal(t, []string{"trip-planner", "trip-holy-land"}, LeadTags(trip))

	assert.Equal(t, []string{"newsletter-subscriber"}, LeadTags(domain.LeadSubmission{Type: "newsletter"}))
	assert.Equal(t, []string{"pastor-retreat"}, LeadTags(domain.LeadSubmission{Type: "pastor_retreat"}))

	// a numeric service extra yields no secondary tag
	paper := domain.LeadSubmission{Type: "white_paper", Extras: domain.Extras{
		domain.ExtraService: {Number: 3, IsNumber: true},
	}}
	assert.Equal(t, []string{"white-paper-download"}, LeadTags(paper))
}

func TestContactTags(t *testing.T) {
	assert.Equal(t, []string{"website-contact"}, ContactTags(""))
	assert.Equal(t, []string{"website-contact", "service-sound-systems"}, ContactTags("Sound Systems"))
}
