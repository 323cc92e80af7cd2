package models

import "time"

// Notification is what sinks receive: the stored event plus its rendered text.
type Notification struct {
	Event      Event
	Text       string
	Original   string
	Translated bool
}

// NotificationResult records one sink delivery attempt. It is only logged and
// counted, never reported to the webhook caller.
// StatusCode is zero for sinks that are not HTTP based or when no response
// arrived.
type NotificationResult struct {
	AttemptID  string        `json:"attempt_id"`
	Sink       string        `json:"sink"`
	EventID    int64         `json:"event_id"`
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
	StatusCode int           `json:"status_code,omitempty"`
	Latency    time.Duration `json:"latency"`
}
