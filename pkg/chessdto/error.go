package chessdto

const (
	CodeBadRequest         = "bad_request"
	CodeIgnored            = "intent_ignored"
	CodeInconsistent       = "inconsistent_state"
	CodeArchiveUnavailable = "archive_unavailable"
)

type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "chess session error"
}
