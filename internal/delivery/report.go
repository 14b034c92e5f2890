package delivery

// Status is the result of one best-effort side effect.
type Status string

const (
	StatusDelivered Status = "delivered"
	StatusSkipped   Status = "skipped" // target not configured
	StatusFailed    Status = "failed"
)

// Mandatory is the outcome of the CRM call. A failure is recorded, never raised.
type Mandatory struct {
	ContactID string
	Err       error
}

// BestEffort is the outcome of a side effect that never affects the response.
type BestEffort struct {
	Target string
	Status Status
	Err    error
}

// Report aggregates one delivery.
type Report struct {
	SubmissionID string
	CRM          Mandatory
	SideEffects  []BestEffort
}

// ContactID is the CRM id when the mandatory call succeeded, else "".
func (r Report) ContactID() string {
	if r.CRM.Err != nil {
		return ""
	}
	return r.CRM.ContactID
}
