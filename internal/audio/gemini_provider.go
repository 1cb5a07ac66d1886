package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/genai"
)

// Gemini TTS returns raw 16-bit little-endian mono PCM at 24 kHz
const (
	geminiSampleRate    = 24000
	geminiBitsPerSample = 16
	geminiChannels      = 1
)

// GeminiSpeaker implements Speaker with the Gemini speech generation models.
// The rate is passed to the model as a spoken pace in the prompt and the
// volume scales the returned samples. Gemini offers no pitch control, so
// Config.Pitch is ignored.
type GeminiSpeaker struct {
	client *genai.Client
	config *Config
	cache  *audioCache
	player *FilePlayer
}

// NewGeminiSpeaker creates a new Gemini TTS speaker
func NewGeminiSpeaker(ctx context.Context, config *Config) (*GeminiSpeaker, error) {
	if config.GeminiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Gemini output is always cached; the temp dir is only used when caching is off
	cacheDir := config.CacheDir
	if !config.EnableCache {
		cacheDir = filepath.Join(os.TempDir(), "kikitori-gemini")
	}
	cache, err := newAudioCache(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &GeminiSpeaker{
		client: client,
		config: config,
		cache:  cache,
		player: NewFilePlayer(config.PlayerCmd),
	}, nil
}

// Speak implements Speaker
func (g *GeminiSpeaker) Speak(ctx context.Context, text string) error {
	if err := ValidateText(text); err != nil {
		return err
	}

	audioFile := g.cacheFile(text)
	if !g.cache.has(audioFile) {
		pcm, err := g.synthesize(ctx, text)
		if err != nil {
			return err
		}
		pcm = scalePCM(pcm, g.volume())
		if _, err := g.cache.write(audioFile, bytes.NewReader(wavFile(pcm))); err != nil {
			return fmt.Errorf("failed to write audio file: %w", err)
		}
	}

	return g.player.Play(ctx, audioFile)
}

func (g *GeminiSpeaker) synthesize(ctx context.Context, text string) ([]byte, error) {
	fmt.Printf("Gemini TTS: Using model '%s' with voice '%s'\n", g.model(), g.voice())

	resp, err := g.client.Models.GenerateContent(ctx, g.model(), genai.Text(g.prompt(text)), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			LanguageCode: g.config.Language,
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.voice()},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Gemini TTS API error: %w", err)
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, fmt.Errorf("no audio data received from Gemini")
}

// cacheFile returns the cache entry for text under the current settings
func (g *GeminiSpeaker) cacheFile(text string) string {
	return g.cache.path(".wav", "gemini", text, g.model(), g.voice(), g.config.Language,
		g.pace(), fmt.Sprintf("%.2f", g.volume()))
}

func (g *GeminiSpeaker) prompt(text string) string {
	return fmt.Sprintf("Say %s, in Japanese: %s", g.pace(), strings.TrimSpace(text))
}

// pace turns the speech rate into an instruction the model understands
func (g *GeminiSpeaker) pace() string {
	switch rate := g.config.Rate; {
	case rate > 0 && rate < 0.9:
		return "very slowly and clearly"
	case rate > 1.1:
		return "clearly at a brisk, natural pace"
	default:
		return "clearly and slowly"
	}
}

func (g *GeminiSpeaker) volume() float64 {
	if g.config.Volume <= 0 {
		return 1.0
	}
	return min(g.config.Volume, 2.0)
}

func (g *GeminiSpeaker) model() string {
	if g.config.GeminiModel != "" {
		return g.config.GeminiModel
	}
	return "gemini-2.5-flash-preview-tts"
}

// GeminiVoices is a selection of the prebuilt Gemini TTS voices
var GeminiVoices = []string{
	"Kore", "Aoede", "Leda", "Zephyr", "Puck", "Charon", "Fenrir", "Orus",
}

func (g *GeminiSpeaker) voice() string {
	if g.config.GeminiVoice != "" {
		return g.config.GeminiVoice
	}
	return "Kore"
}

// Name returns the provider name
func (g *GeminiSpeaker) Name() string {
	return "gemini"
}

// IsAvailable checks if the Gemini API is configured
func (g *GeminiSpeaker) IsAvailable() error {
	if g.config.GeminiKey == "" {
		return fmt.Errorf("Gemini API key not configured")
	}
	return nil
}

// scalePCM multiplies 16-bit little-endian samples by volume, clipping at
// the sample range. Volumes of 0 or 1 return pcm unchanged.
func scalePCM(pcm []byte, volume float64) []byte {
	if volume <= 0 || volume == 1.0 {
		return pcm
	}
	volume = min(volume, 2.0)

	le := binary.LittleEndian
	out := make([]byte, len(pcm))
	copy(out, pcm)
	for i := 0; i+1 < len(out); i += 2 {
		sample := float64(int16(le.Uint16(out[i:]))) * volume
		sample = max(min(sample, math.MaxInt16), math.MinInt16)
		le.PutUint16(out[i:], uint16(int16(sample)))
	}
	return out
}

// wavFile prepends a RIFF/WAVE header to raw PCM samples
func wavFile(pcm []byte) []byte {
	var buf bytes.Buffer
	writeWAV(&buf, pcm, geminiSampleRate, geminiBitsPerSample, geminiChannels)
	return buf.Bytes()
}

func writeWAV(w io.Writer, pcm []byte, sampleRate, bitsPerSample, channels int) {
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	le := binary.LittleEndian
	w.Write([]byte("RIFF"))
	binary.Write(w, le, uint32(36+len(pcm)))
	w.Write([]byte("WAVE"))

	w.Write([]byte("fmt "))
	binary.Write(w, le, uint32(16)) // PCM chunk size
	binary.Write(w, le, uint16(1))  // Linear PCM
	binary.Write(w, le, uint16(channels))
	binary.Write(w, le, uint32(sampleRate))
	binary.Write(w, le, uint32(byteRate))
	binary.Write(w, le, uint16(blockAlign))
	binary.Write(w, le, uint16(bitsPerSample))

	w.Write([]byte("data"))
	binary.Write(w, le, uint32(len(pcm)))
	w.Write(pcm)
}
