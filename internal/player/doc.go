// Package player runs the dictation sequencer on a single goroutine and
// connects it to a real speaker and real (or fake) timers.
//
// Every user command, speech completion and timer firing is posted to the
// loop as an event and processed to completion before the next one, so the
// sequencer never sees concurrent calls.
package player
