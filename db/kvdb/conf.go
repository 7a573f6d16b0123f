package kvdb

import "time"

type Conf struct {
	Type      string `json:"type"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	PW        string `json:"pw"`
	DB        int    `json:"db"`         // optional db number e.g. redis
	KeyPrefix string `json:"key_prefix"` // namespace of this app's keys
	PoolSize  int    `json:"pool_size"`  // 0: driver default
	TimeoutMS int    `json:"timeout_ms"` // dial, read & write
}

func (c *Conf) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
