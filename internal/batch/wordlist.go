// Package batch reads and writes plain text word lists, one word per line.
package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Separator splits the word from its reading on a line
const Separator = "="

// Line is one entry of a text word list
type Line struct {
	Word    string
	Reading string
}

// ReadFile reads a text word list from disk
func ReadFile(filename string) ([]Line, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads a text word list. Supported line formats:
//   - Word only: "猫"
//   - Word with reading: "猫 = ねこ"
//
// Blank lines and lines starting with '#' are skipped, as are lines whose
// word part is empty ("= ねこ").
func Parse(r io.Reader) ([]Line, error) {
	var lines []Line

	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		text := scanner.Text()
		if first {
			text = strings.TrimPrefix(text, "\ufeff")
			first = false
		}

		text = strings.TrimSpace(text)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		word, reading, _ := strings.Cut(text, Separator)
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		lines = append(lines, Line{Word: word, Reading: strings.TrimSpace(reading)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse word list: %w", err)
	}

	return lines, nil
}

// Write encodes lines in the format Parse reads
func Write(w io.Writer, lines []Line) error {
	bw := bufio.NewWriter(w)
	for _, l := range lines {
		var err error
		if l.Reading == "" {
			_, err = fmt.Fprintln(bw, l.Word)
		} else {
			_, err = fmt.Fprintf(bw, "%s %s %s\n", l.Word, Separator, l.Reading)
		}
		if err != nil {
			return fmt.Errorf("failed to write word list: %w", err)
		}
	}
	return bw.Flush()
}
