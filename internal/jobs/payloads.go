package jobs

// WelcomeEmailPayload is enqueued after a successful signup.
type WelcomeEmailPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// FarewellEmailPayload is enqueued after an account is deleted.
type FarewellEmailPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}
