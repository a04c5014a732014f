package model

// AskRequest is the body of a question.
type AskRequest struct {
	Question string `json:"question" validate:"required,notblank,max=2000"`
	Model    string `json:"model" validate:"omitempty,max=128"`
}

// AskResponse is the answer returned to the client.
type AskResponse struct {
	ReportID    string   `json:"report_id"`
	Response    string   `json:"response"`
	ToolsUsed   []string `json:"tools_used"`
	PaperSearch bool     `json:"paper_search"`
	WebSearch   bool     `json:"web_search"`
}

// Feedback values accepted on a report.
const (
	FeedbackAccept = "accept"
	FeedbackDeny   = "deny"
)

// FeedbackRequest validates or rejects a research note.
type FeedbackRequest struct {
	Feedback string `json:"feedback" validate:"required,oneof=accept deny"`
}
