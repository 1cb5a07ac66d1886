package processor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"codeberg.org/snonux/kikitori/internal/quiz"
)

// Quiz asks for every word once on the terminal. Typing ":q" ends early.
func (p *Processor) Quiz(ctx context.Context, in io.Reader, out io.Writer) error {
	store, err := p.openStore(ctx)
	if err != nil {
		return err
	}

	q := quiz.New(store.Words(), func(id string, correct bool) {
		// Results are not kept, there is no review schedule
		log.Printf("Quiz result for %s: correct=%v", id, correct)
	})
	if q.Len() == 0 {
		fmt.Fprintln(out, "No words available for practice. Please add some words first.")
		return nil
	}
	if p.flags.Reverse {
		q.ToggleDirection()
	}

	fmt.Fprintf(out, "Type the %s for each prompt, :q to stop.\n\n", q.Direction())

	scanner := bufio.NewScanner(in)
	score, asked := 0, 0
	for asked < q.Len() {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprintf(out, "[%d/%d] %s > ", q.Index()+1, q.Len(), q.Prompt())
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		answer := scanner.Text()
		if strings.TrimSpace(answer) == ":q" {
			break
		}

		asked++
		if q.Check(answer) {
			score++
			fmt.Fprintln(out, "Correct!")
		} else {
			fmt.Fprintf(out, "Incorrect! The correct answer is: %s\n", q.Expected())
		}
		q.Next()
	}

	fmt.Fprintf(out, "\nScore: %d/%d\n", score, asked)
	return scanner.Err()
}
