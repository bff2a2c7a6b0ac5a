package model

// ClientLogEntry is a diagnostic record shipped by the public tap page.
// All fields are optional; the sink fills defaults.
type ClientLogEntry struct {
	Level     string  `json:"level"`
	Message   string  `json:"message"`
	Timestamp string  `json:"timestamp"`
	SourceURL string  `json:"sourceUrl"`
	Details   *string `json:"details"`
}
