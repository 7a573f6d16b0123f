package docbackend

import "time"

type Conf struct {
	Host     string `json:"host"`
	ClientID string `json:"client_id"` // ID of this App as a Client of the document backend

	// Endpoint templates. {sid}, {page} and {tool} are substituted.
	AnalyzeEndpoint string `json:"analyze"`
	ApplyEndpoint   string `json:"apply"`
	UploadEndpoint  string `json:"upload"`
	ProcessEndpoint string `json:"process"`

	// Service token signing. No key path = unsigned calls.
	SigningKeyPath string `json:"signing_key_path"`
	KeyID          string `json:"key_id"`
	Audience       string `json:"audience"`
	TokenTTLSec    int    `json:"token_ttl_sec"`
	TimeoutSec     int    `json:"timeout_sec"`
}

const (
	DefaultAnalyzeEndpoint = "/analyze/{sid}/{page}"
	DefaultApplyEndpoint   = "/editor/apply/{sid}"
	DefaultUploadEndpoint  = "/api/upload-session"
	DefaultProcessEndpoint = "/api/process-session/{tool}/{sid}"
	DefaultTimeout         = 60 * time.Second
)

func (c *Conf) SetDefaults() {
	if c.AnalyzeEndpoint == "" {
		c.AnalyzeEndpoint = DefaultAnalyzeEndpoint
	}
	if c.ApplyEndpoint == "" {
		c.ApplyEndpoint = DefaultApplyEndpoint
	}
	if c.UploadEndpoint == "" {
		c.UploadEndpoint = DefaultUploadEndpoint
	}
	if c.ProcessEndpoint == "" {
		c.ProcessEndpoint = DefaultProcessEndpoint
	}
}

func (c *Conf) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLSec) * time.Second
}

func (c *Conf) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.TimeoutSec) * time.Second
}
