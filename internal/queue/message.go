package queue

import (
	"encoding/json"
	"time"
)

// EventResumeGenerated names the completion event published after a
// successful generation.
const EventResumeGenerated = "resume.generated"

// MessageVersion is bumped on incompatible payload changes.
const MessageVersion = 1

// Message is the payload sent to downstream queue consumers.
type Message struct {
	Event           string `json:"event"`
	ResumeID        string `json:"resumeId"`
	AccountID       string `json:"accountId"`
	UserID          string `json:"userId"`
	Type            string `json:"type"`
	TemplateID      string `json:"templateId,omitempty"`
	ATSScore        int    `json:"atsScore"`
	KeywordsMatched *int   `json:"keywordsMatched"`
	KeywordsTotal   *int   `json:"keywordsTotal"`
	RequestID       string `json:"requestId,omitempty"`
	EnqueuedAt      string `json:"enqueuedAt"`
	Version         int    `json:"version"`
}

// NewResumeGenerated stamps a completion event with its name, version and
// enqueue time.
func NewResumeGenerated(msg Message, now time.Time) Message {
	msg.Event = EventResumeGenerated
	msg.Version = MessageVersion
	msg.EnqueuedAt = now.UTC().Format(time.RFC3339)
	return msg
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
