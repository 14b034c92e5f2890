package domain

// ContactSubmission is a validated /api/contact payload.
type ContactSubmission struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Organization string `json:"organization,omitempty"`
	Service      string `json:"service"`
	Message      string `json:"message"`
}

// ParseContact validates a decoded JSON body. The first failing field wins.
func ParseContact(body map[string]any) (ContactSubmission, error) {
	var c ContactSubmission
	var err error

	if c.Name, err = ValidateName(body["name"]); err != nil {
		return c, err
	}
	if c.Email, err = ValidateEmail(body["email"]); err != nil {
		return c, err
	}
	if c.Phone, err = ValidatePhone(body["phone"]); err != nil {
		return c, err
	}
	c.Organization = OptionalString(body["organization"])

	// service goes through the optional path first, so "  " and a missing key both end here
	c.Service = OptionalString(body["service"])
	if c.Service == "" {
		return c, invalid("service", "Please select a service")
	}

	if c.Message, err = ValidateMessage(body["message"]); err != nil {
		return c, err
	}
	return c, nil
}
