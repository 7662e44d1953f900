package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// ErrRateLimited marks quota/rate-limit failures, the only retryable error
// class. Providers wrap it; everything else is terminal.
var ErrRateLimited = errors.New("rate limited")

// Generation is one provider response: either generated text or a blocked
// indicator with the service's reason.
type Generation struct {
	Text        string
	Blocked     bool
	BlockReason string
}

// Provider issues a single generation request against a hosted LLM service.
type Provider interface {
	Generate(ctx context.Context, prompt string) (Generation, error)
	Name() string
	Model() string
}

const (
	defaultMaxAttempts  = 7
	defaultInitialDelay = time.Second
)

const emptyOrBlockedResponse = "AI response was empty or blocked for this input, possibly due to safety settings."

const (
	terminalFailurePrefix  = "An unexpected API error occurred:"
	exhaustedFailurePrefix = "Failed to get response after"
)

// IsCallFailure reports whether text is one of the executor's failure
// sentinels rather than genuine model output.
func IsCallFailure(text string) bool {
	return strings.HasPrefix(text, terminalFailurePrefix) ||
		strings.HasPrefix(text, exhaustedFailurePrefix)
}

// IsBlockedResponse reports whether text is the empty/blocked sentinel.
func IsBlockedResponse(text string) bool {
	return text == emptyOrBlockedResponse
}

// Caller wraps a Provider with bounded exponential backoff on rate limits.
// The sleep function is injectable so tests can observe the delay sequence.
type Caller struct {
	provider     Provider
	maxAttempts  int
	initialDelay time.Duration
	sleep        func(time.Duration)
}

func NewCaller(provider Provider, maxAttempts int, initialDelay time.Duration) *Caller {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	if initialDelay <= 0 {
		initialDelay = defaultInitialDelay
	}
	return &Caller{
		provider:     provider,
		maxAttempts:  maxAttempts,
		initialDelay: initialDelay,
		sleep:        time.Sleep,
	}
}

// Call issues the prompt and never fails: every failure mode collapses to a
// sentinel string so one bad item cannot abort a batch. Rate-limit errors are
// retried with base-2 backoff up to maxAttempts total attempts; all other
// errors and blocked/empty responses return immediately.
func (c *Caller) Call(ctx context.Context, prompt string) string {
	attempts := 0
	delay := c.initialDelay
	for attempts < c.maxAttempts {
		gen, err := c.provider.Generate(ctx, prompt)
		if err == nil {
			if gen.Blocked || gen.Text == "" {
				log.Printf("llm response empty or blocked provider=%s reason=%q", c.provider.Name(), gen.BlockReason)
				return emptyOrBlockedResponse
			}
			return gen.Text
		}

		if !errors.Is(err, ErrRateLimited) {
			log.Printf("llm terminal error provider=%s err=%v", c.provider.Name(), err)
			return fmt.Sprintf("%s %v", terminalFailurePrefix, err)
		}

		attempts++
		if attempts < c.maxAttempts {
			log.Printf("llm rate limited provider=%s, retrying in %s (attempt %d/%d)", c.provider.Name(), delay, attempts, c.maxAttempts)
			c.sleep(delay)
			delay *= 2
		} else {
			return fmt.Sprintf("%s %d retries due to quota/rate limit: %v", exhaustedFailurePrefix, c.maxAttempts, err)
		}
	}
	return "Failed to get response after multiple retries (unknown reason)."
}
