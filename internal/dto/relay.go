package dto

// RelayRequest is the body accepted by the AI relay.
type RelayRequest struct {
	Prompt string `json:"prompt"`
	UserID string `json:"user_id"`
}

// RelayResponse carries the model's reply.
type RelayResponse struct {
	Text string `json:"text"`
}

// RelayError is the JSON error body of the relay.
type RelayError struct {
	Error string `json:"error"`
}
