package sequencer

import (
	"math/rand"
	"time"

	"codeberg.org/snonux/kikitori/internal/wordstore"
)

// Interval bounds in seconds
const (
	DefaultInterval = 2
	MinInterval     = 1
	MaxInterval     = 10
)

// Voice speaks one utterance at a time. When the utterance identified by
// token ends, the owner must call Sequencer.SpeechDone(token).
type Voice interface {
	Speak(token uint64, text string)
	// Cancel silences the current utterance immediately
	Cancel()
}

// Scheduler arms a single advance timer. When it fires, the owner must call
// Sequencer.TimerFired(token).
type Scheduler interface {
	After(token uint64, d time.Duration)
	// Stop disarms the pending timer, if any
	Stop()
}

// State is the playback state derived from the playing flag and position
type State int

const (
	Idle State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Snapshot is a read-only view of the sequencer for UIs
type Snapshot struct {
	State    State
	Position int // -1 when idle
	Length   int
	Shuffled bool
	Order    []int
	Interval int // Seconds
	Current  *wordstore.Word
}

// Sequencer is the playback state machine
type Sequencer struct {
	voice     Voice
	scheduler Scheduler
	rng       *rand.Rand

	playlist []wordstore.Word
	order    []int // nil means sequential
	position int
	playing  bool
	interval int
	token    uint64
	closed   bool

	onChange func(Snapshot)
}

// New creates an idle sequencer. rng drives shuffling; pass a seeded source
// for reproducible orders.
func New(voice Voice, scheduler Scheduler, rng *rand.Rand) *Sequencer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Sequencer{
		voice:     voice,
		scheduler: scheduler,
		rng:       rng,
		position:  -1,
		interval:  DefaultInterval,
	}
}

// OnChange registers a callback invoked after every state change
func (s *Sequencer) OnChange(fn func(Snapshot)) {
	s.onChange = fn
}

// SetPlaylist replaces the words to play and stops playback. A shuffled
// order is kept only when it still fits the new list.
func (s *Sequencer) SetPlaylist(words []wordstore.Word) {
	if s.closed {
		return
	}
	s.halt()
	s.playlist = append([]wordstore.Word(nil), words...)
	if len(s.order) != len(s.playlist) {
		s.order = nil
	}
	s.changed()
}

// SetSequential switches to list order and stops playback
func (s *Sequencer) SetSequential() {
	if s.closed {
		return
	}
	s.halt()
	s.order = nil
	s.changed()
}

// SetShuffled switches to a fresh random order and stops playback. Every
// call draws a new permutation.
func (s *Sequencer) SetShuffled() {
	if s.closed || len(s.playlist) == 0 {
		return
	}
	s.halt()
	s.order = Shuffle(s.rng, len(s.playlist))
	s.changed()
}

// SetInterval sets the pause between words, clamped to 1..10 seconds. It
// applies to the next advance.
func (s *Sequencer) SetInterval(seconds int) {
	if seconds < MinInterval {
		seconds = MinInterval
	} else if seconds > MaxInterval {
		seconds = MaxInterval
	}
	s.interval = seconds
	s.changed()
}

// Start plays the list from the first position. It does nothing when the
// list is empty.
func (s *Sequencer) Start() {
	if s.closed || len(s.playlist) == 0 {
		return
	}
	s.playing = true
	s.position = 0
	s.playCurrent()
	s.changed()
}

// Pause stops speech and the pending advance, keeping the position
func (s *Sequencer) Pause() {
	if s.closed {
		return
	}
	s.playing = false
	s.cancelPending()
	s.changed()
}

// Resume speaks the current position again without advancing
func (s *Sequencer) Resume() {
	if s.closed || s.playing || s.position < 0 {
		return
	}
	s.playing = true
	s.playCurrent()
	s.changed()
}

// Replay restarts from the first position, keeping the current order
func (s *Sequencer) Replay() {
	if s.closed || len(s.playlist) == 0 {
		return
	}
	s.playing = true
	s.position = 0
	s.playCurrent()
	s.changed()
}

// SpeechDone handles the end of the utterance started with token
func (s *Sequencer) SpeechDone(token uint64) {
	if s.closed || token != s.token || !s.playing {
		return
	}

	if s.position < len(s.playlist)-1 {
		s.scheduler.After(s.token, time.Duration(s.interval)*time.Second)
		return
	}

	// Last word finished
	s.playing = false
	s.position = -1
	s.changed()
}

// TimerFired handles the advance timer armed with token
func (s *Sequencer) TimerFired(token uint64) {
	if s.closed || token != s.token || !s.playing {
		return
	}
	s.position++
	s.playCurrent()
	s.changed()
}

// Close cancels speech and the pending timer. The sequencer ignores every
// call afterwards.
func (s *Sequencer) Close() {
	if s.closed {
		return
	}
	s.halt()
	s.closed = true
}

// State returns the current playback state
func (s *Sequencer) State() State {
	switch {
	case s.playing:
		return Playing
	case s.position >= 0:
		return Paused
	default:
		return Idle
	}
}

// Snapshot returns a copy of the visible state
func (s *Sequencer) Snapshot() Snapshot {
	snap := Snapshot{
		State:    s.State(),
		Position: s.position,
		Length:   len(s.playlist),
		Shuffled: s.order != nil,
		Order:    s.Order(),
		Interval: s.interval,
	}
	if w, ok := s.wordAt(s.position); ok {
		snap.Current = &w
	}
	return snap
}

// Order returns the list indices in play order
func (s *Sequencer) Order() []int {
	if s.order != nil {
		return append([]int(nil), s.order...)
	}
	identity := make([]int, len(s.playlist))
	for i := range identity {
		identity[i] = i
	}
	return identity
}

// Shuffle returns a uniform random permutation of [0, n) using Fisher-Yates
func Shuffle(rng *rand.Rand, n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

// playCurrent issues exactly one speech request for the current position
func (s *Sequencer) playCurrent() {
	w, ok := s.wordAt(s.position)
	if !ok {
		return
	}
	s.cancelPending()
	s.voice.Speak(s.token, w.SpeechText())
}

// cancelPending silences speech, disarms the timer and invalidates every
// outstanding token
func (s *Sequencer) cancelPending() {
	s.voice.Cancel()
	s.scheduler.Stop()
	s.token++
}

func (s *Sequencer) halt() {
	s.cancelPending()
	s.playing = false
	s.position = -1
}

func (s *Sequencer) wordAt(position int) (wordstore.Word, bool) {
	if position < 0 || position >= len(s.playlist) {
		return wordstore.Word{}, false
	}
	idx := position
	if s.order != nil {
		idx = s.order[position]
	}
	return s.playlist[idx], true
}

func (s *Sequencer) changed() {
	if s.onChange != nil {
		s.onChange(s.Snapshot())
	}
}
