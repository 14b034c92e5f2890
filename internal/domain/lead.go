package domain

import (
	"math"
	"sort"
)

// ExtraField names an optional lead attribute accepted from the client.
type ExtraField string

// The closed set of extra lead fields. Anything else in the request body is dropped.
const (
	ExtraChurchName   ExtraField = "churchName"
	ExtraChurchSize   ExtraField = "churchSize"
	ExtraRole         ExtraField = "role"
	ExtraCity         ExtraField = "city"
	ExtraState        ExtraField = "state"
	ExtraWebsite      ExtraField = "website"
	ExtraDenomination ExtraField = "denomination"
	ExtraService      ExtraField = "service"
	ExtraPaperTitle   ExtraField = "paperTitle"
	ExtraTripType     ExtraField = "tripType"
	ExtraDestination  ExtraField = "destination"
	ExtraGroupSize    ExtraField = "groupSize"
	ExtraTravelDates  ExtraField = "travelDates"
	ExtraBudget       ExtraField = "budget"
	ExtraTimeline     ExtraField = "timeline"
	ExtraMessage      ExtraField = "message"
)

var extraFields = map[ExtraField]struct{}{
	ExtraChurchName: {}, ExtraChurchSize: {}, ExtraRole: {}, ExtraCity: {},
	ExtraState: {}, ExtraWebsite: {}, ExtraDenomination: {}, ExtraService: {},
	ExtraPaperTitle: {}, ExtraTripType: {}, ExtraDestination: {}, ExtraGroupSize: {},
	ExtraTravelDates: {}, ExtraBudget: {}, ExtraTimeline: {}, ExtraMessage: {},
}

// IsExtraField reports whether name is on the lead allow-list.
func IsExtraField(name string) bool {
	_, ok := extraFields[ExtraField(name)]
	return ok
}

// ExtraValue holds either sanitized text or a finite number.
type ExtraValue struct {
	Text     string
	Number   float64
	IsNumber bool
}

// Value returns the value in its JSON-friendly form.
func (v ExtraValue) Value() any {
	if v.IsNumber {
		return v.Number
	}
	return v.Text
}

// Extras is the typed side channel for allow-listed lead fields.
type Extras map[ExtraField]ExtraValue

// Text returns the string form of a text extra, or "" when absent or numeric.
func (e Extras) Text(f ExtraField) string {
	v, ok := e[f]
	if !ok || v.IsNumber {
		return ""
	}
	return v.Text
}

// Fields returns the present keys in stable order.
func (e Extras) Fields() []ExtraField {
	out := make([]ExtraField, 0, len(e))
	for f := range e {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Map flattens the extras for JSON payloads.
func (e Extras) Map() map[string]any {
	out := make(map[string]any, len(e))
	for f, v := range e {
		out[string(f)] = v.Value()
	}
	return out
}

// LeadSubmission is a validated /api/lead payload.
type LeadSubmission struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone,omitempty"`
	Source string `json:"source"`
	Extras Extras `json:"-"`
}

// ParseLead validates a decoded JSON body and filters extras against the allow-list.
func ParseLead(body map[string]any) (LeadSubmission, error) {
	var l LeadSubmission
	var err error

	l.Type = OptionalString(body["type"])
	if l.Type == "" {
		return l, invalid("type", "Lead type is required")
	}
	if l.Name, err = ValidateName(body["name"]); err != nil {
		return l, err
	}
	if l.Email, err = ValidateEmail(body["email"]); err != nil {
		return l, err
	}
	if OptionalString(body["phone"]) != "" {
		if l.Phone, err = ValidatePhone(body["phone"]); err != nil {
			return l, err
		}
	}
	l.Source = OptionalString(body["source"])
	if l.Source == "" {
		l.Source = l.Type
	}
	l.Extras = filterExtras(body)
	return l, nil
}

func filterExtras(body map[string]any) Extras {
	out := Extras{}
	for key, raw := range body {
		if !IsExtraField(key) {
			continue
		}
		switch v := raw.(type) {
		case string:
			out[ExtraField(key)] = ExtraValue{Text: OptionalString(v)}
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			out[ExtraField(key)] = ExtraValue{Number: v, IsNumber: true}
		}
	}
	return out
}
