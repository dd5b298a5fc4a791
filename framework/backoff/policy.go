// Package backoff describes retry schedules and runs operations under them.
package backoff

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// Growth is the rule used to grow the delay between attempts.
type Growth int

const (
	// Exponential multiplies the previous delay by Policy.Multiplier.
	Exponential Growth = iota
	// Fibonacci adds the two previous delays, starting from Initial, Initial.
	Fibonacci
)

func (g Growth) String() string {
	switch g {
	case Exponential:
		return "exponential"
	case Fibonacci:
		return "fibonacci"
	default:
		return fmt.Sprintf("growth(%d)", int(g))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (g Growth) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Growth) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "exponential":
		*g = Exponential
	case "fibonacci":
		*g = Fibonacci
	default:
		return fmt.Errorf("unknown backoff growth %q", string(text))
	}
	return nil
}

// Policy is a bounded schedule of delays between attempts.
type Policy struct {
	// Initial is the delay after the first failed attempt.
	Initial time.Duration `toml:"initial"`
	Growth  Growth        `toml:"growth"`
	// Multiplier is only used by Exponential growth.
	Multiplier uint64 `toml:"multiplier"`
	// MaxDelay caps every individual delay.
	MaxDelay    time.Duration `toml:"max_delay"`
	MaxAttempts uint          `toml:"max_attempts"`
}

// ReadinessPolicy is the schedule used to probe a node over http:
// 200ms, 400ms, 800ms, 1.6s, then 2s until 20 attempts were made.
func ReadinessPolicy() Policy {
	return Policy{
		Initial:     200 * time.Millisecond,
		Growth:      Exponential,
		Multiplier:  2,
		MaxDelay:    2 * time.Second,
		MaxAttempts: 20,
	}
}

// ConnectorPolicy is the schedule used to start a connector:
// 1s, 1s, 2s, 3s, then 5s until 10 attempts were made.
func ConnectorPolicy() Policy {
	return Policy{
		Initial:     time.Second,
		Growth:      Fibonacci,
		MaxDelay:    5 * time.Second,
		MaxAttempts: 10,
	}
}

// Validate checks the policy for common errors.
func (p Policy) Validate() error {
	if p.MaxAttempts == 0 {
		return fmt.Errorf("max attempts must be at least 1")
	}
	if p.Initial < 0 || p.MaxDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if p.Growth == Exponential && p.Multiplier == 0 {
		return fmt.Errorf("exponential growth requires a multiplier")
	}
	if p.Growth != Exponential && p.Growth != Fibonacci {
		return fmt.Errorf("unknown growth %s", p.Growth)
	}
	return nil
}

// Delay returns the delay that follows the (n+1)-th failed attempt, so Delay(0) is Initial.
func (p Policy) Delay(n uint) time.Duration {
	var d time.Duration
	switch p.Growth {
	case Fibonacci:
		prev, cur := p.Initial, p.Initial
		for i := uint(0); i < n; i++ {
			prev, cur = cur, saturatingAdd(prev, cur)
			if p.MaxDelay > 0 && prev >= p.MaxDelay {
				break
			}
		}
		d = prev
	default:
		d = p.Initial
		for i := uint(0); i < n; i++ {
			d = saturatingMul(d, p.Multiplier)
			if p.MaxDelay > 0 && d >= p.MaxDelay {
				break
			}
		}
	}

	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Delays returns every delay the policy can produce, one fewer than MaxAttempts since
// nothing is slept after the final attempt.
func (p Policy) Delays() []time.Duration {
	if p.MaxAttempts == 0 {
		return nil
	}
	out := make([]time.Duration, 0, p.MaxAttempts-1)
	for i := uint(0); i+1 < p.MaxAttempts; i++ {
		out = append(out, p.Delay(i))
	}
	return out
}

// Options returns the retry-go options that run an operation under the policy.
// The final error is the last one returned by the operation.
func (p Policy) Options(ctx context.Context, timer Timer) []retry.Option {
	var slept uint
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(p.MaxAttempts),
		retry.LastErrorOnly(true),
		// retry-go's attempt counter is not relied upon, only the number of sleeps taken so far.
		retry.DelayType(func(_ uint, _ error, _ *retry.Config) time.Duration {
			d := p.Delay(slept)
			slept++
			return d
		}),
	}
	if timer != nil {
		opts = append(opts, retry.WithTimer(timer))
	}
	return opts
}

// Do runs op under the policy. Returning retry.Unrecoverable(err) from op stops the loop at once.
func (p Policy) Do(ctx context.Context, timer Timer, op func() error) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid backoff policy: %w", err)
	}
	return retry.Do(op, p.Options(ctx, timer)...)
}

func saturatingAdd(a, b time.Duration) time.Duration {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

func saturatingMul(d time.Duration, m uint64) time.Duration {
	if d == 0 || m == 0 {
		return 0
	}
	if m > math.MaxInt64 || uint64(d) > math.MaxInt64/m {
		return math.MaxInt64
	}
	return d * time.Duration(m)
}
