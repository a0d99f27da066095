package models

// HistoryTurn is one prior message of the conversation, as replayed by the client.
type HistoryTurn struct {
	Role string `json:"role" binding:"omitempty,oneof=user assistant"`
	Text string `json:"text"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message      string        `json:"message" binding:"required,max=5000"`
	History      []HistoryTurn `json:"history" binding:"omitempty,dive"`
	SelectedText string        `json:"selected_text" binding:"omitempty,max=10000"`
}

// RequestContext carries the per-request caller context parsed from headers
// once at the API boundary. Both fields are optional.
type RequestContext struct {
	UserID      string
	CurrentPage string
}
