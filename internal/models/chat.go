package models

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// AnalyzeRequest is the payload sent to the persona classifier endpoint.
type AnalyzeRequest struct {
	Content string `json:"content"`
}

// AnalyzeResponse names the matched persona and its first message.
type AnalyzeResponse struct {
	Character      string `json:"character"`
	Reason         string `json:"reason"`
	OpeningMessage string `json:"opening_message"`
}

// ChatRequest is the payload sent to the chat endpoint. Clients send the
// persona under either key; Character wins when both are set.
type ChatRequest struct {
	Character   string        `json:"character"`
	Persona     string        `json:"persona"`
	Message     string        `json:"message"`
	History     []ChatMessage `json:"history"`
	UserContext string        `json:"userContext"`
}

// ChatResponse is the persona's reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}
