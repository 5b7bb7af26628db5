package models

type ErrorResponse struct {
	Error      string   `json:"error"`
	Code       string   `json:"code"`
	Categories []string `json:"categories,omitempty"`
	RequestID  string   `json:"request_id"`
}
