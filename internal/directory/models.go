package directory

// Assignment maps a published phone number (DID) to an agent.
// Only rows whose Status equals "assigned" (any case) route to the agent.
type Assignment struct {
	PhoneNumber  string `json:"phone_number" db:"phone_number"`
	Status       string `json:"status" db:"status"`
	AssignedUser string `json:"assigned_user" db:"assigned_user"`
}

// RingGroup maps a shared phone number to a named group of agents.
type RingGroup struct {
	PhoneNumber string `json:"phone_number" db:"phone_number"`
	GroupName   string `json:"group_name" db:"group_name"`
	DisplayName string `json:"display_name,omitempty" db:"display_name"`
}

// Lead is the read-only CRM record matched by the caller's number.
type Lead struct {
	ID          string `json:"id" db:"id"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`
	Name        string `json:"name,omitempty" db:"name"`
	Company     string `json:"company,omitempty" db:"company"`
}
