package ws

import (
	"github.com/dude613/avoda-desktop/internal/session"
)

type MessageType string

const (
	MsgSnapshot        MessageType = "snapshot"
	MsgStatusUpdate    MessageType = "timer_status_update"
	MsgNewScreenshot   MessageType = "new_screenshot"
	MsgScreenshotError MessageType = "screenshot_error"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

type SnapshotPayload struct {
	Session session.Snapshot `json:"session"`
}

type ScreenshotPayload struct {
	ID string `json:"id"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
