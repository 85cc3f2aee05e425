package models

// MongoDate is the extended-JSON date wrapper used by the backend for user
// records.
type MongoDate struct {
	Date string `json:"$date"`
}

// User is an account as reported by the backend.
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	DOB       MongoDate `json:"dob"`
	Gender    string    `json:"gender"`
	Role      string    `json:"role"`
	Status    string    `json:"status,omitempty"`
	CreatedAt MongoDate `json:"created_at"`
	UpdatedAt MongoDate `json:"updated_at"`
}
