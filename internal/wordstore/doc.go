// Package wordstore holds the vocabulary list. It keeps words in insertion
// order, rejects entries whose (word, reading) pair already exists and
// writes the whole collection through a Persister after every mutation.
package wordstore
