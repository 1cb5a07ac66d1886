package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAISpeaker implements Speaker with OpenAI TTS
type OpenAISpeaker struct {
	client *openai.Client
	config *Config
	cache  *audioCache
	player *FilePlayer
}

// NewOpenAISpeaker creates a new OpenAI TTS speaker
func NewOpenAISpeaker(config *Config) (*OpenAISpeaker, error) {
	if config.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	speaker := &OpenAISpeaker{
		client: openai.NewClient(config.OpenAIKey),
		config: config,
		player: NewFilePlayer(config.PlayerCmd),
	}

	if config.EnableCache {
		cache, err := newAudioCache(config.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		speaker.cache = cache
	}

	return speaker, nil
}

// Speak implements Speaker
func (p *OpenAISpeaker) Speak(ctx context.Context, text string) error {
	if err := ValidateText(text); err != nil {
		return err
	}

	audioFile, cleanup, err := p.audioFile(text)
	if err != nil {
		return err
	}
	defer cleanup()

	if p.cache == nil || !p.cache.has(audioFile) {
		if err := p.synthesize(ctx, text, audioFile); err != nil {
			return err
		}
	}

	return p.player.Play(ctx, audioFile)
}

// audioFile returns where the speech for text lives. Without a cache a
// temporary file is used and removed by cleanup.
func (p *OpenAISpeaker) audioFile(text string) (string, func(), error) {
	if p.cache != nil {
		return p.cache.path(".mp3", "openai", text, p.config.OpenAIModel, p.voice(),
			fmt.Sprintf("%.2f", p.speed()), p.instruction()), func() {}, nil
	}

	dir, err := os.MkdirTemp("", "kikitori_tts_*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return filepath.Join(dir, "speech.mp3"), func() { os.RemoveAll(dir) }, nil
}

func (p *OpenAISpeaker) synthesize(ctx context.Context, text, outputFile string) error {
	fmt.Printf("OpenAI TTS: Using model '%s' with voice '%s' at speed %.2f\n", p.config.OpenAIModel, p.voice(), p.speed())

	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.config.OpenAIModel),
		Input:          strings.TrimSpace(text),
		Voice:          openai.SpeechVoice(p.voice()),
		Speed:          p.speed(),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	}
	if instruction := p.instruction(); instruction != "" {
		req.Instructions = instruction
	}

	response, err := p.client.CreateSpeech(ctx, req)
	if err != nil {
		// Check if it's a model access error
		if strings.Contains(err.Error(), "does not have access to model") && p.supportsInstructions() {
			return fmt.Errorf("OpenAI TTS API error: %w\nNote: The %s model requires access. Try setting speech.openai_model to tts-1-hd instead", err, p.config.OpenAIModel)
		}
		return fmt.Errorf("OpenAI TTS API error: %w", err)
	}
	defer response.Close()

	cache := p.cache
	if cache == nil {
		cache = &audioCache{dir: filepath.Dir(outputFile)}
	}
	written, err := cache.write(outputFile, response)
	if err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if written == 0 {
		os.Remove(outputFile)
		return fmt.Errorf("no audio data received from OpenAI")
	}
	return nil
}

// OpenAIVoices are the built-in voices of the OpenAI speech endpoint
var OpenAIVoices = []string{
	"alloy", "ash", "ballad", "coral", "echo", "fable", "nova", "onyx", "sage", "shimmer",
}

func (p *OpenAISpeaker) voice() string {
	if p.config.OpenAIVoice != "" {
		return p.config.OpenAIVoice
	}
	return "nova"
}

// speed maps the common rate onto the 0.25 to 4.0 range OpenAI accepts
func (p *OpenAISpeaker) speed() float64 {
	speed := p.config.Rate
	if speed <= 0 {
		speed = 1.0
	}
	if speed < 0.25 {
		speed = 0.25
	} else if speed > 4.0 {
		speed = 4.0
	}
	return speed
}

func (p *OpenAISpeaker) supportsInstructions() bool {
	return p.config.OpenAIModel == "gpt-4o-mini-tts" || p.config.OpenAIModel == "gpt-4o-mini-audio-preview"
}

func (p *OpenAISpeaker) instruction() string {
	if !p.supportsInstructions() {
		return ""
	}
	return p.config.OpenAIInstruction
}

// Name returns the provider name
func (p *OpenAISpeaker) Name() string {
	return "openai"
}

// IsAvailable checks if the OpenAI API is configured
func (p *OpenAISpeaker) IsAvailable() error {
	if p.config.OpenAIKey == "" {
		return fmt.Errorf("OpenAI API key not configured")
	}
	// A test call would cost credits, so only the key is checked
	return nil
}
