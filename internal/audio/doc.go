// Package audio speaks text aloud. A Speaker blocks until the utterance has
// finished or its context is canceled, which silences it immediately.
//
// Local speech goes through espeak-ng. Cloud voices (OpenAI, Gemini) are
// synthesized into an on-disk cache and played with a local audio player.
// FallbackSpeaker chains two speakers behind a circuit breaker.
package audio
