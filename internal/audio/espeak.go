package audio

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ESpeakConfig holds configuration for espeak-ng speech
type ESpeakConfig struct {
	Voice     string // Voice variant (e.g., "ja", "ja+f2")
	Speed     int    // Speech speed in words per minute (default: 150)
	Pitch     int    // Pitch adjustment, 0 to 99 (default: 50)
	Amplitude int    // Volume/amplitude, 0 to 200 (default: 100)
	WordGap   int    // Gap between words in 10ms units (default: 0)
}

// DefaultConfig returns the default configuration for the Japanese voice
func DefaultConfig() *ESpeakConfig {
	return &ESpeakConfig{
		Voice:     "ja",
		Speed:     150,
		Pitch:     50,
		Amplitude: 100,
		WordGap:   0,
	}
}

// ESpeakConfigFrom maps the common rate/pitch/volume settings onto espeak ranges
func ESpeakConfigFrom(config *Config) *ESpeakConfig {
	ec := DefaultConfig()
	if config.Voice != "" {
		ec.Voice = config.Voice
	} else if voice, ok := voiceForLanguage(ListVoices(), config.LocalePrefix); ok {
		ec.Voice = voice
	}
	if config.Rate > 0 {
		ec.Speed = clamp(int(float64(ec.Speed)*config.Rate), 80, 450)
	}
	if config.Pitch > 0 {
		ec.Pitch = clamp(int(float64(ec.Pitch)*config.Pitch), 0, 99)
	}
	if config.Volume > 0 {
		ec.Amplitude = clamp(int(float64(ec.Amplitude)*config.Volume), 0, 200)
	}
	return ec
}

// ESpeakSpeaker speaks through the local espeak-ng binary
type ESpeakSpeaker struct {
	config *ESpeakConfig
}

// NewESpeakSpeaker creates a new espeak-ng speaker
func NewESpeakSpeaker(config *ESpeakConfig) *ESpeakSpeaker {
	if config == nil {
		config = DefaultConfig()
	}
	return &ESpeakSpeaker{config: config}
}

// Speak implements Speaker
func (e *ESpeakSpeaker) Speak(ctx context.Context, text string) error {
	if err := ValidateText(text); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, "espeak-ng", e.args(text)...)
	output, err := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("espeak-ng failed: %w\nOutput: %s", err, string(output))
	}
	return nil
}

func (e *ESpeakSpeaker) args(text string) []string {
	args := []string{
		"-v", e.config.Voice,
		"-s", fmt.Sprintf("%d", e.config.Speed),
		"-p", fmt.Sprintf("%d", e.config.Pitch),
		"-a", fmt.Sprintf("%d", e.config.Amplitude),
	}
	if e.config.WordGap > 0 {
		args = append(args, "-g", fmt.Sprintf("%d", e.config.WordGap))
	}
	// "--" keeps words starting with a dash from being read as flags
	return append(args, "--", text)
}

// Name returns the provider name
func (e *ESpeakSpeaker) Name() string {
	return "espeak-ng"
}

// IsAvailable checks if espeak-ng is installed
func (e *ESpeakSpeaker) IsAvailable() error {
	return checkESpeakInstalled()
}

// checkESpeakInstalled verifies that espeak-ng is available on the system
func checkESpeakInstalled() error {
	cmd := exec.Command("espeak-ng", "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("espeak-ng is not installed or not in PATH: %w", err)
	}
	return nil
}

// ListVoices returns the Japanese voice variants shipped with espeak-ng
func ListVoices() []string {
	return []string{
		"ja",    // Default Japanese voice
		"ja+m1", // Male voice 1
		"ja+m3", // Male voice 3
		"ja+f1", // Female voice 1
		"ja+f2", // Female voice 2
		"ja+f4", // Female voice 4
	}
}

// VoiceForLocale picks the first voice whose name starts with prefix
func VoiceForLocale(voices []string, prefix string) (string, bool) {
	prefix = strings.ToLower(prefix)
	for _, v := range voices {
		if strings.HasPrefix(strings.ToLower(v), prefix) {
			return v, true
		}
	}
	return "", false
}

// voiceForLanguage matches the language part of a tag such as "ja-JP"
func voiceForLanguage(voices []string, tag string) (string, bool) {
	lang, _, _ := strings.Cut(strings.ReplaceAll(tag, "_", "-"), "-")
	if lang == "" {
		return "", false
	}
	return VoiceForLocale(voices, lang)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
