package models

// Member is the logged-in member as reported by the login check endpoint
type Member struct {
	Name string `json:"name"`
}
