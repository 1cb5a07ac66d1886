package sequencer

import (
	"fmt"
	"strconv"
	"strings"

	"codeberg.org/snonux/kikitori/internal/wordstore"
)

// Mode selects which words make up the play list
type Mode string

const (
	// ModeToday plays the words added today
	ModeToday Mode = "today"
	// ModeDaily plays the first N words of the whole list, N being the quota
	ModeDaily Mode = "daily"
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeToday:
		return ModeToday, nil
	case ModeDaily, "":
		return ModeDaily, nil
	default:
		return "", fmt.Errorf("unknown play mode: %s (use today or daily)", s)
	}
}

// QuotaPresets are the selectable session sizes besides "all" and a custom number
var QuotaPresets = []int{10, 20, 50, 100, 200}

// DefaultQuota is the preset selected when nothing else is configured
const DefaultQuota = 10

// Quota is the number of words in a daily session
type Quota struct {
	All bool // Every available word
	N   int  // Requested size, ignored when All is set
}

// CustomQuota turns user typed text into a quota. Text that is not a
// positive number counts as 1.
func CustomQuota(text string) Quota {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 {
		n = 1
	}
	return Quota{N: n}
}

// ParseQuota accepts a preset ("20"), "all" or "custom:<n>"
func ParseQuota(s string) (Quota, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return Quota{N: DefaultQuota}, nil
	case s == "all" || s == "全部":
		return Quota{All: true}, nil
	case strings.HasPrefix(s, "custom:"):
		return CustomQuota(strings.TrimPrefix(s, "custom:")), nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return Quota{}, fmt.Errorf("invalid quota %q: use %s, all or custom:<n>", s, presetList())
	}
	for _, p := range QuotaPresets {
		if p == n {
			return Quota{N: n}, nil
		}
	}
	return Quota{}, fmt.Errorf("quota %d is not a preset (%s), use custom:%d", n, presetList(), n)
}

// Effective clamps the quota to [1, available]. An empty pool gives 0.
func (q Quota) Effective(available int) int {
	if available <= 0 {
		return 0
	}
	if q.All {
		return available
	}
	n := q.N
	if n < 1 {
		n = 1
	}
	if n > available {
		n = available
	}
	return n
}

func (q Quota) String() string {
	if q.All {
		return "all"
	}
	return strconv.Itoa(q.N)
}

// Selection describes how to derive a play list from the word list
type Selection struct {
	Mode  Mode
	Quota Quota  // Used by ModeDaily only
	Today string // Date string that counts as today for ModeToday
}

// Playlist returns the words to play, in store order
func (sel Selection) Playlist(words []wordstore.Word) []wordstore.Word {
	if sel.Mode == ModeToday {
		var today []wordstore.Word
		for _, w := range words {
			if w.Date == sel.Today {
				today = append(today, w)
			}
		}
		return today
	}

	n := sel.Quota.Effective(len(words))
	return append([]wordstore.Word(nil), words[:n]...)
}

func presetList() string {
	parts := make([]string, len(QuotaPresets))
	for i, p := range QuotaPresets {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}
