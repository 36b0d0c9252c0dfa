package contact

import "time"

// JobNotify is the queue job that delivers a staff notification.
const JobNotify = "notify_contact"

// Message states.
const (
	StatusReceived = "received"
	StatusNotified = "notified"
)

// Urgency levels offered by the contact form.
const (
	UrgencyLow    = "low"
	UrgencyNormal = "normal"
	UrgencyHigh   = "high"
	UrgencyUrgent = "urgent"
)

// Request is the contact form payload.
type Request struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Urgency string `json:"urgency"`
}

// Message is a stored support request.
type Message struct {
	ID         string
	Reference  string
	Name       string
	Email      string
	Subject    string
	Body       string
	Urgency    string
	Status     string
	CreatedAt  time.Time
	NotifiedAt *time.Time
}

// Response acknowledges a submission.
type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Reference string `json:"reference"`
}
