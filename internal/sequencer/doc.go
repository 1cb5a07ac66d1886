// Package sequencer implements the dictation playback state machine.
//
// A Sequencer walks a play list in sequential or shuffled order and asks a
// Voice to speak one word at a time. After each utterance it waits for the
// configured interval through a Scheduler before moving on. Both ports
// report back through SpeechDone and TimerFired carrying the token they were
// started with; events with a stale token are dropped, so at most one
// utterance and one pending advance exist at any time.
//
// The Sequencer is not safe for concurrent use. internal/player drives it
// from a single goroutine.
package sequencer
