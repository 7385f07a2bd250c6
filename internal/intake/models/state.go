package models

// Step identifies where a conversation is in one of the guided flows.
type Step string

const (
	StepMenu            Step = "menu"
	StepFirstName       Step = "first_name"
	StepLastName        Step = "last_name"
	StepNationalID      Step = "national_id"
	StepPhone           Step = "phone"
	StepStreamLink      Step = "stream_link"
	StepStreamCity      Step = "stream_city"
	StepStreamOwnerID   Step = "stream_owner_id"
)

// State is the per-conversation accumulator. Step determines which fields are
// populated: every field collected by a prior step in the sequence is set.
type State struct {
	Step       Step   `json:"step"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	NationalID string `json:"national_id,omitempty"`
	Phone      string `json:"phone,omitempty"`
	StreamLink string `json:"stream_link,omitempty"`
	StreamCity string `json:"stream_city,omitempty"`
}

// NewState returns the initial state for a previously unseen conversation.
func NewState() State {
	return State{Step: StepMenu}
}
