package player

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"codeberg.org/snonux/kikitori/internal/audio"
	"codeberg.org/snonux/kikitori/internal/sequencer"
	"codeberg.org/snonux/kikitori/internal/wordstore"
)

// ErrClosed is returned by commands sent to a closed player
var ErrClosed = errors.New("player closed")

// Player owns a sequencer, the speaker and the advance timer
type Player struct {
	seq     *sequencer.Sequencer
	speaker audio.Speaker
	clock   clockwork.Clock
	rng     *rand.Rand

	ctx    context.Context
	cancel context.CancelFunc

	events    chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	onChange func(sequencer.Snapshot)

	// Loop-owned speech and timer state
	stopSpeech  context.CancelFunc
	finished    chan struct{}
	timer       clockwork.Timer
	idleWaiters []chan struct{}
}

// Option configures a Player
type Option func(*Player)

// WithClock replaces the real clock, mainly for tests
func WithClock(clock clockwork.Clock) Option {
	return func(p *Player) {
		p.clock = clock
	}
}

// WithRand sets the random source used for shuffling
func WithRand(rng *rand.Rand) Option {
	return func(p *Player) {
		p.rng = rng
	}
}

// WithOnChange registers a callback for every sequencer state change. It
// runs on the player goroutine and must not call back into the player.
func WithOnChange(fn func(sequencer.Snapshot)) Option {
	return func(p *Player) {
		p.onChange = fn
	}
}

// New creates a player and starts its loop. Call Close to release it.
func New(speaker audio.Speaker, opts ...Option) *Player {
	p := &Player{
		speaker: speaker,
		clock:   clockwork.NewRealClock(),
		events:  make(chan func()),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.seq = sequencer.New(voice{p}, scheduler{p}, p.rng)
	p.seq.OnChange(p.changed)

	go p.run()
	return p
}

// SetPlaylist replaces the words to play and stops playback
func (p *Player) SetPlaylist(words []wordstore.Word) error {
	return p.do(func() { p.seq.SetPlaylist(words) })
}

// Start plays the playlist from the beginning
func (p *Player) Start() error {
	return p.do(p.seq.Start)
}

// Pause stops speech and the pending advance
func (p *Player) Pause() error {
	return p.do(p.seq.Pause)
}

// Resume speaks the current word again and continues
func (p *Player) Resume() error {
	return p.do(p.seq.Resume)
}

// Replay restarts from the first word keeping the current order
func (p *Player) Replay() error {
	return p.do(p.seq.Replay)
}

// Shuffle draws a new random order and stops playback
func (p *Player) Shuffle() error {
	return p.do(p.seq.SetShuffled)
}

// Sequential restores list order and stops playback
func (p *Player) Sequential() error {
	return p.do(p.seq.SetSequential)
}

// SetInterval sets the pause between words in seconds
func (p *Player) SetInterval(seconds int) error {
	return p.do(func() { p.seq.SetInterval(seconds) })
}

// Snapshot returns the current sequencer state
func (p *Player) Snapshot() (sequencer.Snapshot, error) {
	var snap sequencer.Snapshot
	err := p.do(func() { snap = p.seq.Snapshot() })
	return snap, err
}

// Wait blocks until playback is idle, ctx is done or the player is closed
func (p *Player) Wait(ctx context.Context) error {
	idle := make(chan struct{})
	err := p.do(func() {
		if p.seq.State() == sequencer.Idle {
			close(idle)
			return
		}
		p.idleWaiters = append(p.idleWaiters, idle)
	})
	if err != nil {
		return err
	}

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return ErrClosed
	}
}

// Close stops speech and timers and ends the loop. It is safe to call more
// than once.
func (p *Player) Close() {
	p.closeOnce.Do(func() {
		close(p.quit)
	})
	<-p.done
}

func (p *Player) run() {
	defer close(p.done)
	defer p.cancel()

	for {
		select {
		case fn := <-p.events:
			fn()
		case <-p.quit:
			p.seq.Close()
			p.releaseWaiters()
			return
		}
	}
}

// do runs fn on the loop and waits for it to finish
func (p *Player) do(fn func()) error {
	ran := make(chan struct{})
	event := func() {
		fn()
		close(ran)
	}

	select {
	case p.events <- event:
	case <-p.done:
		return ErrClosed
	case <-p.quit:
		return ErrClosed
	}

	select {
	case <-ran:
		return nil
	case <-p.done:
		return ErrClosed
	}
}

// post queues fn without waiting. Events posted after the loop ended are
// dropped.
func (p *Player) post(fn func()) {
	select {
	case p.events <- fn:
	case <-p.done:
	}
}

func (p *Player) changed(snap sequencer.Snapshot) {
	if snap.State == sequencer.Idle {
		p.releaseWaiters()
	}
	if p.onChange != nil {
		p.onChange(snap)
	}
}

func (p *Player) releaseWaiters() {
	for _, ch := range p.idleWaiters {
		close(ch)
	}
	p.idleWaiters = nil
}

// voice adapts the speaker to the sequencer. Its methods run on the loop.
type voice struct {
	p *Player
}

func (v voice) Speak(token uint64, text string) {
	p := v.p
	ctx, cancel := context.WithCancel(p.ctx)
	finished := make(chan struct{})
	p.stopSpeech, p.finished = cancel, finished

	go func() {
		err := p.speaker.Speak(ctx, text)
		close(finished)
		if err != nil && ctx.Err() == nil {
			// Failed words count as spoken so the session keeps moving
			log.Printf("Warning: failed to speak %q: %v", text, err)
		}
		cancel()
		p.post(func() { p.seq.SpeechDone(token) })
	}()
}

// Cancel stops the current utterance and waits until the speaker returned,
// so two utterances never overlap
func (v voice) Cancel() {
	p := v.p
	if p.stopSpeech == nil {
		return
	}
	p.stopSpeech()
	<-p.finished
	p.stopSpeech, p.finished = nil, nil
}

// scheduler arms the advance timer on the player's clock
type scheduler struct {
	p *Player
}

func (s scheduler) After(token uint64, d time.Duration) {
	p := s.p
	p.timer = p.clock.AfterFunc(d, func() {
		p.post(func() { p.seq.TimerFired(token) })
	})
}

func (s scheduler) Stop() {
	p := s.p
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
