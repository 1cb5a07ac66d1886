package reading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHiragana(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ネコ", "ねこ"},
		{"ニホンゴ", "にほんご"},
		{"ヴァ", "ゔぁ"},
		{"ねこ", "ねこ"},
		{"猫", "猫"},
		{"ABC", "ABC"},
		{"ー", "ー"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ToHiragana(tt.in), tt.in)
	}
}

func TestSuggest(t *testing.T) {
	s, err := NewSuggester()
	require.NoError(t, err)

	tests := []struct {
		word   string
		want   string
		wantOK bool
	}{
		{"猫", "ねこ", true},
		{"学校", "がっこう", true},
		{" 犬 ", "いぬ", true},
		{"ねこ", "", false},
		{"ネコ", "", false},
		{"", "", false},
		{"xyzzy", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			got, ok := s.Suggest(tt.word)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
