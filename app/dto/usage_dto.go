package dto

// UsageSummaryResponse sums the customer's activity counters for the current
// calendar month.
type UsageSummaryResponse struct {
	PeriodStart       string `json:"period_start" example:"2026-08-01T00:00:00Z"`
	PeriodEnd         string `json:"period_end" example:"2026-08-28T10:30:00Z"`
	MessagesGenerated int64  `json:"messages_generated" example:"120"`
	MessagesSent      int64  `json:"messages_sent" example:"45"`
	ProspectsAdded    int64  `json:"prospects_added" example:"60"`
	RepliesReceived   int64  `json:"replies_received" example:"12"`
}
