package models

import "strings"

// Questionnaire holds the seven health-intake answers the backend requires
// before a consultation can start. All fields are free-form strings; the
// backend owns interpretation.
type Questionnaire struct {
	Age            string `json:"age"`
	Gender         string `json:"gender"`
	MedicalHistory string `json:"medical_history"`
	Medications    string `json:"medications"`
	Allergies      string `json:"allergies"`
	Height         string `json:"height"`
	Weight         string `json:"weight"`
	SubmittedAt    string `json:"submitted_at,omitempty"`
}

// MissingFields returns the names of answers that are blank after trimming.
// A submission is rejected before any network call unless this is empty.
func (q Questionnaire) MissingFields() []string {
	fields := []struct {
		name  string
		value string
	}{
		{"age", q.Age},
		{"gender", q.Gender},
		{"medical_history", q.MedicalHistory},
		{"medications", q.Medications},
		{"allergies", q.Allergies},
		{"height", q.Height},
		{"weight", q.Weight},
	}

	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
