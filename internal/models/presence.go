package models

// WebSocket message types
const (
	WSTypePresence  = "presence"
	WSTypeQTCreated = "qt_created"
	WSTypePrayer    = "prayer_created"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type PresenceUpdate struct {
	Online int64 `json:"online"`
}

// PresenceTokenResponse hands an anonymous visitor a socket token.
type PresenceTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
