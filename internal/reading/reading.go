// Package reading suggests kana readings for Japanese words using the
// kagome morphological analyzer and the IPA dictionary.
package reading

import (
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// IPA feature index of the katakana reading
const readingFeature = 7

// Suggester turns words into hiragana readings
type Suggester struct {
	t *tokenizer.Tokenizer
}

// NewSuggester loads the IPA dictionary. Loading takes a moment, so create
// one suggester and reuse it.
func NewSuggester() (*Suggester, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer: %w", err)
	}
	return &Suggester{t: t}, nil
}

// Suggest returns the hiragana reading of word. ok is false when any part
// of the word is unknown to the dictionary or when the word is already
// written in kana.
func (s *Suggester) Suggest(word string) (string, bool) {
	word = strings.TrimSpace(word)
	if word == "" {
		return "", false
	}

	var sb strings.Builder
	for _, token := range s.t.Tokenize(word) {
		if token.Class == tokenizer.DUMMY || strings.TrimSpace(token.Surface) == "" {
			continue
		}
		features := token.Features()
		if token.Class == tokenizer.UNKNOWN || len(features) <= readingFeature || features[readingFeature] == "*" {
			return "", false
		}
		sb.WriteString(features[readingFeature])
	}

	reading := ToHiragana(sb.String())
	if reading == "" || reading == ToHiragana(word) {
		return "", false
	}
	return reading, true
}

// ToHiragana converts katakana to hiragana, leaving other runes alone
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 'ァ' && r <= 'ヶ' {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}
