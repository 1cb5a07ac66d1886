package player

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/kikitori/internal/sequencer"
	"codeberg.org/snonux/kikitori/internal/wordstore"
)

// fakeSpeaker reports every utterance on spoken. With hold set, Speak blocks
// until its context is canceled.
type fakeSpeaker struct {
	spoken   chan string
	canceled chan string
	hold     bool
	err      error
}

func newFakeSpeaker() *fakeSpeaker {
	return &fakeSpeaker{
		spoken:   make(chan string, 32),
		canceled: make(chan string, 32),
	}
}

func (f *fakeSpeaker) Speak(ctx context.Context, text string) error {
	f.spoken <- text
	if f.hold {
		<-ctx.Done()
		f.canceled <- text
		return ctx.Err()
	}
	return f.err
}

func (f *fakeSpeaker) Name() string { return "fake" }

func (f *fakeSpeaker) IsAvailable() error { return nil }

func words() []wordstore.Word {
	return []wordstore.Word{
		{ID: "1", Word: "猫", Reading: "ねこ", Date: "2024-5-1"},
		{ID: "2", Word: "犬", Date: "2024-5-1"},
		{ID: "3", Word: "鳥", Reading: "とり", Date: "2024-5-1"},
	}
}

func expectSpoken(t *testing.T, f *fakeSpeaker, want string) {
	t.Helper()
	select {
	case got := <-f.spoken:
		assert.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		require.FailNowf(t, "timeout", "timed out waiting for %q", want)
	}
}

func expectSilence(t *testing.T, f *fakeSpeaker) {
	t.Helper()
	select {
	case got := <-f.spoken:
		require.FailNowf(t, "unexpected speech", "got %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func waitForTimer(t *testing.T, clock *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
}

func TestPlayerPlaysWholeListInOrder(t *testing.T) {
	speaker := newFakeSpeaker()
	clock := clockwork.NewFakeClock()
	p := New(speaker, WithClock(clock))
	defer p.Close()

	require.NoError(t, p.SetPlaylist(words()))
	require.NoError(t, p.Start())

	expectSpoken(t, speaker, "ねこ")
	waitForTimer(t, clock)
	clock.Advance(sequencer.DefaultInterval * time.Second)

	expectSpoken(t, speaker, "犬")
	waitForTimer(t, clock)
	clock.Advance(sequencer.DefaultInterval * time.Second)

	expectSpoken(t, speaker, "とり")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Wait(ctx))

	snap, err := p.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, sequencer.Idle, snap.State)
	assert.Equal(t, -1, snap.Position)
}

func TestPlayerIntervalDelaysAdvance(t *testing.T) {
	speaker := newFakeSpeaker()
	clock := clockwork.NewFakeClock()
	p := New(speaker, WithClock(clock))
	defer p.Close()

	require.NoError(t, p.SetPlaylist(words()))
	require.NoError(t, p.SetInterval(5))
	require.NoError(t, p.Start())

	expectSpoken(t, speaker, "ねこ")
	waitForTimer(t, clock)

	clock.Advance(4 * time.Second)
	expectSilence(t, speaker)

	clock.Advance(time.Second)
	expectSpoken(t, speaker, "犬")
}

func TestPlayerPauseStopsPendingAdvance(t *testing.T) {
	speaker := newFakeSpeaker()
	clock := clockwork.NewFakeClock()
	p := New(speaker, WithClock(clock))
	defer p.Close()

	require.NoError(t, p.SetPlaylist(words()))
	require.NoError(t, p.Start())
	expectSpoken(t, speaker, "ねこ")
	waitForTimer(t, clock)

	require.NoError(t, p.Pause())
	clock.Advance(time.Minute)
	expectSilence(t, speaker)

	snap, err := p.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, sequencer.Paused, snap.State)
	assert.Equal(t, 0, snap.Position)

	// Resume repeats the current word
	require.NoError(t, p.Resume())
	expectSpoken(t, speaker, "ねこ")
}

func TestPlayerPauseCancelsSpeech(t *testing.T) {
	speaker := newFakeSpeaker()
	speaker.hold = true
	p := New(speaker, WithClock(clockwork.NewFakeClock()))
	defer p.Close()

	require.NoError(t, p.SetPlaylist(words()))
	require.NoError(t, p.Start())
	expectSpoken(t, speaker, "ねこ")

	require.NoError(t, p.Pause())
	select {
	case got := <-speaker.canceled:
		assert.Equal(t, "ねこ", got)
	default:
		t.Fatal("Pause returned before the utterance was canceled")
	}
}

func TestPlayerFailedSpeechKeepsAdvancing(t *testing.T) {
	speaker := newFakeSpeaker()
	speaker.err = errors.New("no audio device")
	clock := clockwork.NewFakeClock()
	p := New(speaker, WithClock(clock))
	defer p.Close()

	require.NoError(t, p.SetPlaylist(words()))
	require.NoError(t, p.Start())
	expectSpoken(t, speaker, "ねこ")

	waitForTimer(t, clock)
	clock.Advance(sequencer.DefaultInterval * time.Second)
	expectSpoken(t, speaker, "犬")
}

func TestPlayerShuffleIsReproducible(t *testing.T) {
	order := func() []int {
		p := New(newFakeSpeaker(), WithClock(clockwork.NewFakeClock()), WithRand(rand.New(rand.NewSource(42))))
		defer p.Close()

		require.NoError(t, p.SetPlaylist(words()))
		require.NoError(t, p.Shuffle())
		snap, err := p.Snapshot()
		require.NoError(t, err)
		assert.True(t, snap.Shuffled)
		return snap.Order
	}

	first := order()
	assert.Equal(t, first, order())
	assert.ElementsMatch(t, []int{0, 1, 2}, first)
}

func TestPlayerReplayUsesShuffledOrder(t *testing.T) {
	speaker := newFakeSpeaker()
	clock := clockwork.NewFakeClock()
	p := New(speaker, WithClock(clock), WithRand(rand.New(rand.NewSource(7))))
	defer p.Close()

	list := words()
	require.NoError(t, p.SetPlaylist(list))
	require.NoError(t, p.Shuffle())
	snap, err := p.Snapshot()
	require.NoError(t, err)

	require.NoError(t, p.Replay())
	for i, idx := range snap.Order {
		expectSpoken(t, speaker, list[idx].SpeechText())
		if i < len(snap.Order)-1 {
			waitForTimer(t, clock)
			clock.Advance(sequencer.DefaultInterval * time.Second)
		}
	}
}

func TestPlayerOnChange(t *testing.T) {
	states := make(chan sequencer.State, 16)
	p := New(newFakeSpeaker(), WithClock(clockwork.NewFakeClock()), WithOnChange(func(s sequencer.Snapshot) {
		states <- s.State
	}))
	defer p.Close()

	require.NoError(t, p.SetPlaylist(words()))
	require.NoError(t, p.Start())
	require.NoError(t, p.Pause())

	// SetPlaylist, Start, Pause
	assert.Equal(t, sequencer.Idle, <-states)
	assert.Equal(t, sequencer.Playing, <-states)
	assert.Equal(t, sequencer.Paused, <-states)
}

func TestPlayerClose(t *testing.T) {
	speaker := newFakeSpeaker()
	speaker.hold = true
	p := New(speaker, WithClock(clockwork.NewFakeClock()))

	require.NoError(t, p.SetPlaylist(words()))
	require.NoError(t, p.Start())
	expectSpoken(t, speaker, "ねこ")

	p.Close()
	p.Close()

	select {
	case <-speaker.canceled:
	default:
		t.Fatal("Close did not cancel the running utterance")
	}

	assert.ErrorIs(t, p.Start(), ErrClosed)
	_, err := p.Snapshot()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, p.Wait(context.Background()), ErrClosed)
}

func TestPlayerWaitWhenIdle(t *testing.T) {
	p := New(newFakeSpeaker(), WithClock(clockwork.NewFakeClock()))
	defer p.Close()

	assert.NoError(t, p.Wait(context.Background()))
}
