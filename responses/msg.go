package responses

type Message struct {
	Type    string `json:"type"` // "error", "success"
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"` // application-level logic code
}

// Application-level logic codes
const (
	CodeUnknownSession = 1001
	CodeStale          = 1002
	CodeBusy           = 1003
	CodeNotReady       = 1004
	CodeBackend        = 1005
	CodeThrottled      = 1006
)
