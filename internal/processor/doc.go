// Package processor wires the word store, the speech providers and the
// dictation player together and implements the operations behind every
// command. This package serves as the main coordinator between all other
// components.
package processor
