// Package quiz asks for one word at a time and checks typed answers.
package quiz

import (
	"strings"

	"codeberg.org/snonux/kikitori/internal/wordstore"
)

// Direction selects which field is shown and which one must be typed
type Direction int

const (
	// WordFromReading shows the reading and asks for the word
	WordFromReading Direction = iota
	// ReadingFromWord shows the word and asks for the reading
	ReadingFromWord
)

func (d Direction) String() string {
	if d == ReadingFromWord {
		return "reading"
	}
	return "word"
}

// Outcome is the state of the current question
type Outcome int

const (
	Unanswered Outcome = iota
	Correct
	Incorrect
)

// Quiz walks a fixed list of words in order, wrapping around at the end.
// It is not safe for concurrent use.
type Quiz struct {
	items     []wordstore.Word
	index     int
	direction Direction
	outcome   Outcome
	onResult  func(id string, correct bool)
}

// New creates a quiz over a copy of words. onResult, if not nil, receives
// every checked answer.
func New(words []wordstore.Word, onResult func(id string, correct bool)) *Quiz {
	return &Quiz{
		items:    append([]wordstore.Word(nil), words...),
		onResult: onResult,
	}
}

// SetWords replaces the questions and keeps the position, clamped to the
// new list, and the direction. The answer state survives only while the
// same word stays current.
func (q *Quiz) SetWords(words []wordstore.Word) {
	prev, hadPrev := q.Current()

	q.items = append([]wordstore.Word(nil), words...)
	q.index = max(0, min(q.index, len(q.items)-1))

	if cur, ok := q.Current(); !ok || !hadPrev || cur.ID != prev.ID {
		q.outcome = Unanswered
	}
}

// Len returns the number of questions
func (q *Quiz) Len() int {
	return len(q.items)
}

// Index returns the zero based position of the current question
func (q *Quiz) Index() int {
	return q.index
}

// Current returns the word being asked. ok is false for an empty quiz.
func (q *Quiz) Current() (wordstore.Word, bool) {
	if len(q.items) == 0 {
		return wordstore.Word{}, false
	}
	return q.items[q.index], true
}

// Direction returns the current direction
func (q *Quiz) Direction() Direction {
	return q.direction
}

// Outcome returns the result of the last check of the current question
func (q *Quiz) Outcome() Outcome {
	return q.outcome
}

// Prompt returns the text shown to the user. A word without reading is
// shown as itself.
func (q *Quiz) Prompt() string {
	w, ok := q.Current()
	if !ok {
		return ""
	}
	if q.direction == ReadingFromWord || w.Reading == "" {
		return w.Word
	}
	return w.Reading
}

// Expected returns the answer for the current question
func (q *Quiz) Expected() string {
	w, ok := q.Current()
	if !ok {
		return ""
	}
	if q.direction == ReadingFromWord {
		return w.Reading
	}
	return w.Word
}

// Check compares answer with the expected field, ignoring case and
// surrounding whitespace. It does nothing on an empty quiz.
func (q *Quiz) Check(answer string) bool {
	w, ok := q.Current()
	if !ok {
		return false
	}

	correct := Matches(answer, q.Expected())
	if correct {
		q.outcome = Correct
	} else {
		q.outcome = Incorrect
	}
	if q.onResult != nil {
		q.onResult(w.ID, correct)
	}
	return correct
}

// Next moves to the following question, wrapping to the first
func (q *Quiz) Next() {
	if len(q.items) == 0 {
		return
	}
	q.index = (q.index + 1) % len(q.items)
	q.outcome = Unanswered
}

// ToggleDirection switches the direction and clears the answer state
func (q *Quiz) ToggleDirection() {
	if q.direction == WordFromReading {
		q.direction = ReadingFromWord
	} else {
		q.direction = WordFromReading
	}
	q.outcome = Unanswered
}

// Matches reports whether answer equals expected after trimming the answer
// and folding case
func Matches(answer, expected string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), expected)
}
