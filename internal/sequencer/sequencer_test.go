package sequencer

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/kikitori/internal/wordstore"
)

func newTestSequencer(n int) (*Sequencer, *fakeVoice, *fakeScheduler) {
	voice := &fakeVoice{}
	sched := &fakeScheduler{}
	s := New(voice, sched, rand.New(rand.NewSource(42)))
	s.SetPlaylist(testWords(n))
	return s, voice, sched
}

// finishCurrent completes the live utterance and fires the advance timer
func finishCurrent(s *Sequencer, voice *fakeVoice, sched *fakeScheduler) bool {
	s.SpeechDone(voice.last().token)
	return sched.fire(s)
}

func TestNewIsIdle(t *testing.T) {
	s, _, _ := newTestSequencer(3)

	snap := s.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Equal(t, -1, snap.Position)
	assert.Equal(t, 3, snap.Length)
	assert.Equal(t, DefaultInterval, snap.Interval)
	assert.False(t, snap.Shuffled)
	assert.Nil(t, snap.Current)
}

func TestStartOnEmptyListIsNoop(t *testing.T) {
	s, voice, _ := newTestSequencer(0)

	s.Start()

	assert.Equal(t, Idle, s.State())
	assert.Empty(t, voice.spoken)
}

func TestStartPlaysFirstWord(t *testing.T) {
	s, voice, _ := newTestSequencer(3)

	s.Start()

	assert.Equal(t, Playing, s.State())
	require.Len(t, voice.spoken, 1)
	assert.Equal(t, "word0", voice.last().text)
	assert.Equal(t, 0, s.Snapshot().Position)
}

func TestSpeaksReadingWhenPresent(t *testing.T) {
	voice := &fakeVoice{}
	s := New(voice, &fakeScheduler{}, rand.New(rand.NewSource(1)))
	s.SetPlaylist([]wordstore.Word{{ID: "1", Word: "猫", Reading: "ねこ"}})

	s.Start()

	assert.Equal(t, "ねこ", voice.last().text)
}

func TestSequentialPlaybackVisitsEveryWord(t *testing.T) {
	s, voice, sched := newTestSequencer(3)
	s.SetInterval(4)

	s.Start()
	for finishCurrent(s, voice, sched) {
	}

	assert.Equal(t, []string{"word0", "word1", "word2"}, voice.texts())
	for _, a := range sched.armed {
		assert.Equal(t, 4*time.Second, a.d)
	}
	assert.Len(t, sched.armed, 2)

	// The last word returns the sequencer to idle
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, -1, s.Snapshot().Position)
}

func TestEachAdvanceIssuesOneRequest(t *testing.T) {
	s, voice, sched := newTestSequencer(3)

	s.Start()
	s.SpeechDone(voice.last().token)
	require.True(t, sched.fire(s))

	assert.Len(t, voice.spoken, 2)
	assert.Equal(t, 1, s.Snapshot().Position)
}

func TestPauseCancelsPendingTimer(t *testing.T) {
	s, voice, sched := newTestSequencer(3)

	s.Start()
	s.SpeechDone(voice.last().token)
	require.NotNil(t, sched.pending)
	staleToken := sched.pending.token

	s.Pause()

	assert.Nil(t, sched.pending)
	assert.Equal(t, Paused, s.State())

	// A timer that raced the pause must not advance
	s.TimerFired(staleToken)
	assert.Equal(t, 0, s.Snapshot().Position)
	assert.Len(t, voice.spoken, 1)
}

func TestPauseCancelsSpeech(t *testing.T) {
	s, voice, sched := newTestSequencer(3)

	s.Start()
	token := voice.last().token
	cancels := voice.cancels
	s.Pause()

	assert.Equal(t, cancels+1, voice.cancels)

	// The canceled utterance reporting completion must not arm a timer
	s.SpeechDone(token)
	assert.Nil(t, sched.pending)
}

func TestResumeReplaysCurrentPosition(t *testing.T) {
	s, voice, sched := newTestSequencer(3)

	s.Start()
	finishCurrent(s, voice, sched)
	s.Pause()
	s.Resume()

	assert.Equal(t, Playing, s.State())
	assert.Equal(t, 1, s.Snapshot().Position)
	assert.Equal(t, []string{"word0", "word1", "word1"}, voice.texts())
}

func TestResumeWhenIdleIsNoop(t *testing.T) {
	s, voice, _ := newTestSequencer(3)

	s.Resume()

	assert.Equal(t, Idle, s.State())
	assert.Empty(t, voice.spoken)
}

func TestResumeWhilePlayingIsNoop(t *testing.T) {
	s, voice, _ := newTestSequencer(3)

	s.Start()
	s.Resume()

	assert.Len(t, voice.spoken, 1)
}

func TestReplayKeepsShuffledOrder(t *testing.T) {
	s, voice, sched := newTestSequencer(5)
	s.SetShuffled()
	order := s.Order()

	s.Start()
	finishCurrent(s, voice, sched)
	finishCurrent(s, voice, sched)
	voice.spoken = nil

	s.Replay()
	require.Equal(t, 0, s.Snapshot().Position)
	for finishCurrent(s, voice, sched) {
	}

	var want []string
	for _, idx := range order {
		want = append(want, testWords(5)[idx].Word)
	}
	assert.Equal(t, want, voice.texts())
	assert.True(t, s.Snapshot().Shuffled)
	assert.Equal(t, order, s.Order())
}

func TestReplayOnEmptyListIsNoop(t *testing.T) {
	s, voice, _ := newTestSequencer(0)

	s.Replay()

	assert.Equal(t, Idle, s.State())
	assert.Empty(t, voice.spoken)
}

func TestSetShuffledStopsPlayback(t *testing.T) {
	s, voice, sched := newTestSequencer(4)

	s.Start()
	s.SpeechDone(voice.last().token)
	s.SetShuffled()

	assert.Equal(t, Idle, s.State())
	assert.Nil(t, sched.pending)
	assert.True(t, s.Snapshot().Shuffled)
}

func TestSetSequentialRestoresIdentity(t *testing.T) {
	s, _, _ := newTestSequencer(4)

	s.SetShuffled()
	s.Start()
	s.SetSequential()

	assert.Equal(t, Idle, s.State())
	assert.Equal(t, []int{0, 1, 2, 3}, s.Order())
	assert.False(t, s.Snapshot().Shuffled)
}

func TestShuffleOnEmptyListIsNoop(t *testing.T) {
	s, _, _ := newTestSequencer(0)

	s.SetShuffled()

	assert.False(t, s.Snapshot().Shuffled)
}

func TestShuffleIsPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for _, n := range []int{0, 1, 2, 5, 50} {
		perm := Shuffle(rng, n)
		require.Len(t, perm, n)

		want := make([]int, n)
		for i := range want {
			want[i] = i
		}
		assert.ElementsMatch(t, want, perm, "n=%d", n)
	}
}

func TestShuffleProducesNewOrders(t *testing.T) {
	s, _, _ := newTestSequencer(10)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		s.SetShuffled()
		seen[formatOrder(s.Order())] = true
	}

	assert.Greater(t, len(seen), 1)
}

func TestShuffleIsReproducibleWithSeed(t *testing.T) {
	a := Shuffle(rand.New(rand.NewSource(99)), 20)
	b := Shuffle(rand.New(rand.NewSource(99)), 20)
	assert.Equal(t, a, b)
}

func TestSetIntervalClamps(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 1},
		{-5, 1},
		{1, 1},
		{7, 7},
		{10, 10},
		{11, 10},
	}

	for _, tt := range tests {
		s, _, _ := newTestSequencer(1)
		s.SetInterval(tt.in)
		assert.Equal(t, tt.want, s.Snapshot().Interval, "SetInterval(%d)", tt.in)
	}
}

func TestIntervalChangeAppliesToNextAdvance(t *testing.T) {
	s, voice, sched := newTestSequencer(3)

	s.Start()
	s.SetInterval(5)
	s.SpeechDone(voice.last().token)

	require.NotNil(t, sched.pending)
	assert.Equal(t, 5*time.Second, sched.pending.d)
}

func TestSetPlaylistDropsMismatchedOrder(t *testing.T) {
	s, _, _ := newTestSequencer(4)
	s.SetShuffled()

	s.SetPlaylist(testWords(4))
	assert.True(t, s.Snapshot().Shuffled)

	s.SetPlaylist(testWords(3))
	assert.False(t, s.Snapshot().Shuffled)
}

func TestCloseReleasesResources(t *testing.T) {
	s, voice, sched := newTestSequencer(3)

	s.Start()
	s.SpeechDone(voice.last().token)
	cancels := voice.cancels

	s.Close()

	assert.Nil(t, sched.pending)
	assert.Equal(t, cancels+1, voice.cancels)

	s.Start()
	assert.Len(t, voice.spoken, 1)
}

func TestOnChangeReportsSnapshots(t *testing.T) {
	s, _, _ := newTestSequencer(2)

	var states []State
	s.OnChange(func(snap Snapshot) {
		states = append(states, snap.State)
	})

	s.Start()
	s.Pause()
	s.Resume()

	assert.Equal(t, []State{Playing, Paused, Playing}, states)
}

func formatOrder(order []int) string {
	b := make([]byte, 0, len(order))
	for _, i := range order {
		b = append(b, byte('a'+i))
	}
	return string(b)
}
