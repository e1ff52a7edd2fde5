package models

// Student is a library member as registered by the backend. StudentID is the
// canonical identifier (e.g. "LUCK25001") that seats are derived from.
type Student struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	MobileNo  string `json:"mobile_no,omitempty"`
	Address   string `json:"address,omitempty"`
}
