package dto

// WSEvent is a message pushed to a connected client.
type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

const WSEventNotification = "notification"
