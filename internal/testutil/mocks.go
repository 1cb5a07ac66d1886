package testutil

import (
	"context"
	"sync"
)

// MockSpeaker is a mock implementation of audio.Speaker for testing
type MockSpeaker struct {
	mu     sync.Mutex
	Err    error
	spoken []string
}

// Speak records text and returns Err
func (m *MockSpeaker) Speak(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spoken = append(m.spoken, text)
	return m.Err
}

// Name returns the mock provider name
func (m *MockSpeaker) Name() string {
	return "mock"
}

// IsAvailable always succeeds
func (m *MockSpeaker) IsAvailable() error {
	return nil
}

// Spoken returns the texts spoken so far
func (m *MockSpeaker) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.spoken...)
}
