package session

import "github.com/zeptools/gw-pdfedit/sec"

type Conf struct {
	EncryptionKey string          `json:"enckey"`
	Cipher        *sec.SealCipher `json:"-"`

	// seconds
	ExpireSliding int `json:"expire_sliding"`
	ExpireHardcap int `json:"expire_hardcap"`

	CookieName string `json:"cookie_name"`
}

const (
	DefaultCookieName    = "__Host-pdfedit_sid"
	DefaultExpireSliding = 2 * 60 * 60
	DefaultExpireHardcap = 24 * 60 * 60
)

func (c *Conf) SetDefaults() {
	if c.CookieName == "" {
		c.CookieName = DefaultCookieName
	}
	if c.ExpireSliding <= 0 {
		c.ExpireSliding = DefaultExpireSliding
	}
	if c.ExpireHardcap <= 0 {
		c.ExpireHardcap = DefaultExpireHardcap
	}
	if c.ExpireSliding > c.ExpireHardcap {
		c.ExpireSliding = c.ExpireHardcap
	}
}
