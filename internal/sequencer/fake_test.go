package sequencer

import (
	"fmt"
	"time"

	"codeberg.org/snonux/kikitori/internal/wordstore"
)

type spoken struct {
	token uint64
	text  string
}

type fakeVoice struct {
	spoken  []spoken
	cancels int
}

func (v *fakeVoice) Speak(token uint64, text string) {
	v.spoken = append(v.spoken, spoken{token: token, text: text})
}

func (v *fakeVoice) Cancel() {
	v.cancels++
}

func (v *fakeVoice) last() spoken {
	return v.spoken[len(v.spoken)-1]
}

func (v *fakeVoice) texts() []string {
	var out []string
	for _, s := range v.spoken {
		out = append(out, s.text)
	}
	return out
}

type armed struct {
	token uint64
	d     time.Duration
}

type fakeScheduler struct {
	pending *armed
	armed   []armed
	stops   int
}

func (f *fakeScheduler) After(token uint64, d time.Duration) {
	a := armed{token: token, d: d}
	f.pending = &a
	f.armed = append(f.armed, a)
}

func (f *fakeScheduler) Stop() {
	f.pending = nil
	f.stops++
}

// fire delivers the pending timer, if still armed
func (f *fakeScheduler) fire(s *Sequencer) bool {
	if f.pending == nil {
		return false
	}
	token := f.pending.token
	f.pending = nil
	s.TimerFired(token)
	return true
}

func testWords(n int) []wordstore.Word {
	words := make([]wordstore.Word, n)
	for i := range words {
		words[i] = wordstore.Word{
			ID:   fmt.Sprintf("id-%d", i),
			Word: fmt.Sprintf("word%d", i),
		}
	}
	return words
}
