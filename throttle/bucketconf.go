package throttle

import "time"

type BucketConf struct {
	Burst     int           `json:"burst"`     // maximum number of tokens in the bucket
	Increment int           `json:"increment"` // how many tokens to add each period
	Period    time.Duration `json:"-"`         // how often to add Increment
	PeriodMS  int64         `json:"period_ms"`
}

// Normalize fills Period from PeriodMS and guards zero values
func (c *BucketConf) Normalize() {
	if c.Period == 0 {
		c.Period = time.Duration(c.PeriodMS) * time.Millisecond
	}
	if c.Period <= 0 {
		c.Period = time.Second
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.Increment <= 0 {
		c.Increment = 1
	}
}
