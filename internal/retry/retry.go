package retry

import (
	"math"
	"time"
)

const (
	DefaultBaseDelay = 1 * time.Second
	DefaultMaxDelay  = 60 * time.Second
	DefaultFactor    = 2.0
)

// Policy describes how often a failed task is retried and how the delay
// between attempts grows. Zero values are treated as "use defaults".
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// Factor multiplies the delay after each failed attempt.
	Factor float64

	// MaxDelay caps backoff growth.
	MaxDelay time.Duration
}

func (p Policy) FillDefaults() Policy {
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.Factor <= 0 {
		p.Factor = DefaultFactor
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	return p
}

// Allow reports whether a task already retried retryCount times gets
// another attempt. The count therefore never exceeds MaxRetries.
func (p Policy) Allow(retryCount int) bool {
	return retryCount < p.MaxRetries
}

// Delay computes the backoff before retry number retryCount (1-based):
// BaseDelay * Factor^(retryCount-1), capped at MaxDelay.
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}

	d := time.Duration(float64(p.BaseDelay) * math.Pow(p.Factor, float64(retryCount-1)))
	if d <= 0 || d > p.MaxDelay {
		// overflow collapses to the cap as well
		d = p.MaxDelay
	}
	return d
}
