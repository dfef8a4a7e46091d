package httpdto

// ReceiveMessageRequest is used for POST /v1/messages/inbound
type ReceiveMessageRequest struct {
	ThreadID       string `json:"thread_id,omitempty"`
	Contact        string `json:"contact,omitempty"`
	Body           string `json:"body" binding:"required"`
	Channel        string `json:"channel,omitempty"`
	ExternalID     string `json:"external_id,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}
