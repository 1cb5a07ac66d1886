package audio

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sony/gobreaker"
)

// FallbackSpeaker speaks with the primary speaker and switches to the
// fallback when it fails. A circuit breaker skips the primary for a while
// after repeated failures, so a dead cloud voice does not delay every word.
type FallbackSpeaker struct {
	primary  Speaker
	fallback Speaker
	breaker  *gobreaker.CircuitBreaker
}

// NewFallbackSpeaker creates a speaker that falls back to secondary if primary fails
func NewFallbackSpeaker(primary, fallback Speaker) *FallbackSpeaker {
	settings := gobreaker.Settings{
		Name:        primary.Name(),
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			// Canceled utterances say nothing about the provider's health
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("Speech provider %s: circuit %s -> %s", name, from, to)
		},
	}

	return &FallbackSpeaker{
		primary:  primary,
		fallback: fallback,
		breaker:  gobreaker.NewCircuitBreaker(settings),
	}
}

// Speak tries the primary speaker first, falls back to the secondary on error
func (f *FallbackSpeaker) Speak(ctx context.Context, text string) error {
	_, err := f.breaker.Execute(func() (interface{}, error) {
		return nil, f.primary.Speak(ctx, text)
	})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		log.Printf("Primary provider (%s) unavailable, using %s", f.primary.Name(), f.fallback.Name())
	} else {
		log.Printf("Primary provider (%s) failed: %v. Falling back to %s", f.primary.Name(), err, f.fallback.Name())
	}
	return f.fallback.Speak(ctx, text)
}

// Name returns the provider name
func (f *FallbackSpeaker) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", f.primary.Name(), f.fallback.Name())
}

// IsAvailable checks if at least one provider is available
func (f *FallbackSpeaker) IsAvailable() error {
	primaryErr := f.primary.IsAvailable()
	if primaryErr == nil {
		return nil
	}

	fallbackErr := f.fallback.IsAvailable()
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("both providers unavailable: primary=%v, fallback=%v",
		primaryErr, fallbackErr)
}

// State returns the circuit breaker state of the primary speaker
func (f *FallbackSpeaker) State() gobreaker.State {
	return f.breaker.State()
}
