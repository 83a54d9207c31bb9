package response

// Response is the envelope of every BloodCare API reply. List endpoints put a
// pagination.Result (items, total, page, limit, totalPages) in Data, which
// pkg/client unwraps.
type Response struct {
	Status     string `json:"status"`      // "success" or "error"
	StatusCode int    `json:"status_code"` // mirrors the HTTP status
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

func Success(statusCode int, data any) Response {
	return Response{
		Status:     StatusSuccess,
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error carries a message safe to show the caller; internal causes are logged, never sent.
func Error(statusCode int, message string) Response {
	return Response{
		Status:     StatusError,
		StatusCode: statusCode,
		Error:      message,
	}
}

// OK reports whether the envelope describes a successful call.
func (r Response) OK() bool {
	return r.Status == StatusSuccess && r.StatusCode < 400
}
