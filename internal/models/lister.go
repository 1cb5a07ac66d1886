package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/kikitori/internal/audio"
)

// Providers lists the speech providers in display order
var Providers = []string{"espeak", "openai", "gemini"}

// modelClient is the part of the OpenAI client the lister needs
type modelClient interface {
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// Lister prints voices and models per provider
type Lister struct {
	apiKey string
	client modelClient
	out    io.Writer
}

// NewLister creates a lister writing to out. The OpenAI model query is
// skipped when apiKey is empty.
func NewLister(apiKey string, out io.Writer) *Lister {
	l := &Lister{apiKey: apiKey, out: out}
	if apiKey != "" {
		l.client = openai.NewClient(apiKey)
	}
	return l
}

// ListVoices prints the voices of provider, or of every provider when
// provider is empty
func (l *Lister) ListVoices(ctx context.Context, provider string) error {
	providers := Providers
	if provider != "" {
		provider = strings.ToLower(provider)
		if provider == "espeak-ng" {
			provider = "espeak"
		}
		if !isProvider(provider) {
			return fmt.Errorf("unknown speech provider: %s (use %s)", provider, strings.Join(Providers, ", "))
		}
		providers = []string{provider}
	}

	for i, p := range providers {
		if i > 0 {
			fmt.Fprintln(l.out)
		}
		if err := l.listProvider(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (l *Lister) listProvider(ctx context.Context, provider string) error {
	switch provider {
	case "espeak":
		l.printList("espeak-ng voices:", audio.ListVoices())
	case "openai":
		l.printList("OpenAI voices:", audio.OpenAIVoices)
		return l.listOpenAIModels(ctx)
	case "gemini":
		l.printList("Gemini voices:", audio.GeminiVoices)
	}
	return nil
}

func (l *Lister) listOpenAIModels(ctx context.Context) error {
	if l.client == nil {
		fmt.Fprintln(l.out, "\nSet OPENAI_API_KEY to list the OpenAI TTS models available to you")
		return nil
	}

	models, err := l.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	tts := TTSModels(models.Models)
	fmt.Fprintln(l.out)
	if len(tts) == 0 {
		fmt.Fprintln(l.out, "OpenAI TTS models:\n  No TTS models found")
		return nil
	}
	l.printList("OpenAI TTS models:", tts)
	return nil
}

func (l *Lister) printList(title string, items []string) {
	fmt.Fprintln(l.out, title)
	for _, item := range items {
		fmt.Fprintf(l.out, "  %s\n", item)
	}
}

// TTSModels returns the sorted IDs of the speech capable models
func TTSModels(models []openai.Model) []string {
	var tts []string
	for _, m := range models {
		if strings.Contains(m.ID, "tts") {
			tts = append(tts, m.ID)
		}
	}
	sort.Strings(tts)
	return tts
}

func isProvider(name string) bool {
	for _, p := range Providers {
		if p == name {
			return true
		}
	}
	return false
}
