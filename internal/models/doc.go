// Package models lists the voices and speech models offered by the speech
// providers. It helps users pick a --voice value, and with an OpenAI API key
// it also asks the API which TTS models the key can use.
package models
