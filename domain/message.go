package domain

import "time"

// Message is one entry of a conversation transcript.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Intent is the coarse category assigned to one user turn.
type Intent string

const (
	IntentWeather Intent = "weather"
	IntentCareer  Intent = "career"
	IntentGeneral Intent = "general"
)

// Mode is the conversation-level behavioral mode.
type Mode string

const (
	ModeIdle        Mode = "idle"
	ModeInInterview Mode = "in_interview"
)
