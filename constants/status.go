package constants

// ExtractPath is the classifier's routing decision, stored with log lines and responses.
type ExtractPath string

const (
	PathLayout ExtractPath = "layout"
	PathOCR    ExtractPath = "ocr"
)

// EmailNote values returned alongside an extraction.
const (
	EmailNoteUnauthenticated = "user_not_authenticated"
	EmailNoteQueued          = "queued"
	EmailNoteNoArtifact      = "no_excel_path"
)

// Delivery reasons reported by the notification sender.
const (
	MailNotConfigured = "smtp_not_configured"
	MailFileNotFound  = "file_not_found"
	MailSendFailed    = "send_failed"
	MailSent          = "sent"
)
