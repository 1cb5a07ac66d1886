package wordstore

// Word is a single vocabulary entry
type Word struct {
	ID      string `json:"id"`
	Word    string `json:"word"`    // Primary form (kanji or kana)
	Reading string `json:"reading"` // Kana reading, empty when unknown
	Date    string `json:"date"`    // Date the entry was added, e.g. "2024-3-7"
}

// Entry is a word that has not been assigned an ID yet
type Entry struct {
	Word    string
	Reading string
	Date    string
}

// Patch holds the fields to change in UpdateWord. Nil fields stay untouched.
type Patch struct {
	Word    *string
	Reading *string
	Date    *string
}

// Result reports the outcome of a bulk add
type Result struct {
	Added      int
	Duplicated int
}

// SpeechText returns the text to hand to a speaker: the reading when
// present, otherwise the primary form.
func (w Word) SpeechText() string {
	if w.Reading != "" {
		return w.Reading
	}
	return w.Word
}

func (w Word) sameKey(e Entry) bool {
	return w.Word == e.Word && w.Reading == e.Reading
}
