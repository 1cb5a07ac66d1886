package audio

import (
	"context"
	"fmt"
	"io"
	"os"
)

// ConsoleSpeaker prints the text instead of speaking it. Useful on machines
// without any speech engine.
type ConsoleSpeaker struct {
	out io.Writer
}

// NewConsoleSpeaker creates a speaker writing to out (stdout when nil)
func NewConsoleSpeaker(out io.Writer) *ConsoleSpeaker {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleSpeaker{out: out}
}

// Speak implements Speaker
func (c *ConsoleSpeaker) Speak(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateText(text); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.out, "♪ %s\n", text)
	return err
}

// Name returns the provider name
func (c *ConsoleSpeaker) Name() string {
	return "console"
}

// IsAvailable always succeeds
func (c *ConsoleSpeaker) IsAvailable() error {
	return nil
}
