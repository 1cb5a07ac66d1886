package audio

import (
	"context"
	"fmt"
	"strings"
)

// Speaker defines the interface for text-to-speech providers
type Speaker interface {
	// Speak says text and returns once playback has finished. Canceling ctx
	// stops the utterance and returns ctx.Err().
	Speak(ctx context.Context, text string) error

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and available
	IsAvailable() error
}

// Config holds common configuration for speech providers
type Config struct {
	Provider string // "espeak", "openai", "gemini" or "console"
	Fallback string // Optional provider used when the primary fails

	Language     string  // BCP 47 tag, e.g. "ja-JP"
	LocalePrefix string  // Voice locale prefix used to pick a voice, e.g. "ja"
	Voice        string  // Explicit voice, provider specific
	Rate         float64 // 1.0 is normal speed
	Pitch        float64 // 1.0 is normal pitch
	Volume       float64 // 0.0 to 2.0, 1.0 is normal volume

	EnableCache bool
	CacheDir    string
	PlayerCmd   string // Audio file player, empty to auto-detect

	// OpenAI-specific settings
	OpenAIKey         string
	OpenAIModel       string // "tts-1", "tts-1-hd" or "gpt-4o-mini-tts"
	OpenAIVoice       string // "alloy", "coral", "nova", "shimmer", ...
	OpenAIInstruction string // Voice instructions for gpt-4o-mini-tts

	// Gemini-specific settings
	GeminiKey   string
	GeminiModel string
	GeminiVoice string
}

// DefaultSpeakerConfig returns default configuration
func DefaultSpeakerConfig() *Config {
	return &Config{
		Provider:          "espeak",
		Language:          "ja-JP",
		LocalePrefix:      "ja",
		Rate:              1.0,
		Pitch:             1.0,
		Volume:            1.0,
		EnableCache:       true,
		OpenAIModel:       "gpt-4o-mini-tts",
		OpenAIVoice:       "nova",
		OpenAIInstruction: "You are speaking Japanese (日本語). Read the word with standard Tokyo pitch accent. Speak slowly and clearly for language learners.",
		GeminiModel:       "gemini-2.5-flash-preview-tts",
		GeminiVoice:       "Kore",
	}
}

// NewSpeaker creates the configured speaker, wrapped with a fallback when
// config.Fallback names a different provider
func NewSpeaker(ctx context.Context, config *Config) (Speaker, error) {
	if config == nil {
		config = DefaultSpeakerConfig()
	}

	primary, err := newProvider(ctx, config.Provider, config)
	if err != nil {
		return nil, err
	}

	if config.Fallback == "" || config.Fallback == config.Provider {
		return primary, nil
	}

	fallback, err := newProvider(ctx, config.Fallback, config)
	if err != nil {
		return nil, fmt.Errorf("fallback speaker: %w", err)
	}
	return NewFallbackSpeaker(primary, fallback), nil
}

func newProvider(ctx context.Context, name string, config *Config) (Speaker, error) {
	switch strings.ToLower(name) {
	case "espeak", "espeak-ng":
		return NewESpeakSpeaker(ESpeakConfigFrom(config)), nil
	case "openai":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return NewOpenAISpeaker(config)
	case "gemini":
		if config.GeminiKey == "" {
			return nil, fmt.Errorf("Gemini API key is required")
		}
		return NewGeminiSpeaker(ctx, config)
	case "console":
		return NewConsoleSpeaker(nil), nil
	default:
		return nil, fmt.Errorf("unknown speech provider: %s", name)
	}
}

// ValidateText checks that there is something to say
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text cannot be empty")
	}
	return nil
}
