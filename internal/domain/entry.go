package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RawEvent is an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// DiaryMessage is one message a user added to their diary.
type DiaryMessage struct {
	UserID    string    `json:"user_id"`
	MessageID string    `json:"message_id"`
	Text      string    `json:"text"`
	SentAt    time.Time `json:"sent_at"`
}

// TitledEntry is a diary message with its resolved location and title.
type TitledEntry struct {
	DiaryMessage
	Location   string    `json:"location"`
	Display    string    `json:"display"`
	Tier       Tier      `json:"tier"`
	Matched    string    `json:"matched,omitempty"`
	Title      string    `json:"title"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// Key identifies the entry on the sink topic.
func (e TitledEntry) Key() string {
	return e.UserID + ":" + e.MessageID
}

// ParseDiaryMessage decodes a raw event. A missing sent_at falls back to the
// message timestamp.
func ParseDiaryMessage(raw RawEvent) (DiaryMessage, error) {
	var msg DiaryMessage
	if err := json.Unmarshal(raw.Value, &msg); err != nil {
		return DiaryMessage{}, fmt.Errorf("parse diary message: %w", err)
	}
	if msg.UserID == "" {
		return DiaryMessage{}, errors.New("parse diary message: missing user_id")
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = raw.Timestamp
	}
	return msg, nil
}
