package dto

type RecognizeResponse struct {
	Recognized     bool                   `json:"recognized"`
	ShouldAnnounce bool                   `json:"should_announce"`
	Person         *PersonResponse        `json:"person,omitempty"`
	Confidence     *float32               `json:"confidence,omitempty"`
	Announcement   string                 `json:"announcement,omitempty"`
	TimelineEvent  *TimelineEventResponse `json:"timeline_event,omitempty"`
}

type VisitorStatusResponse struct {
	DeviceID       string `json:"device_id"`
	Active         bool   `json:"active"`
	PollIntervalMS int64  `json:"poll_interval_ms"`
	StartedAt      string `json:"started_at,omitempty"`
	LastAttemptAt  string `json:"last_attempt_at,omitempty"`
	InFlight       bool   `json:"in_flight"`
	FrameBuffered  bool   `json:"frame_buffered"`
}
