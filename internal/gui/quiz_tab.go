package gui

import (
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"codeberg.org/snonux/kikitori/internal/quiz"
	"codeberg.org/snonux/kikitori/internal/wordstore"
)

// quizPanel asks for one word at a time
type quizPanel struct {
	app  *Application
	quiz *quiz.Quiz

	directionLabel *widget.Label
	promptLabel    *widget.Label
	resultLabel    *widget.Label
	scoreLabel     *widget.Label
	answerEntry    *widget.Entry

	checkBtn  *ttwidget.Button
	nextBtn   *ttwidget.Button
	toggleBtn *ttwidget.Button
	speakBtn  *ttwidget.Button

	content fyne.CanvasObject

	correct  int
	answered int
}

func newQuizPanel(a *Application) *quizPanel {
	p := &quizPanel{app: a}

	p.directionLabel = widget.NewLabel("")
	p.promptLabel = widget.NewLabel("")
	p.promptLabel.Alignment = fyne.TextAlignCenter
	p.promptLabel.TextStyle = fyne.TextStyle{Bold: true}
	p.resultLabel = widget.NewLabel("")
	p.resultLabel.Alignment = fyne.TextAlignCenter
	p.scoreLabel = widget.NewLabel("")
	p.scoreLabel.TextStyle = fyne.TextStyle{Italic: true}

	p.answerEntry = widget.NewEntry()
	p.answerEntry.SetPlaceHolder("Your answer...")
	p.answerEntry.OnSubmitted = func(string) {
		if p.quiz != nil && p.quiz.Outcome() != quiz.Unanswered {
			p.onNext()
			return
		}
		p.onCheck()
	}

	p.checkBtn = ttwidget.NewButtonWithIcon("Check", theme.ConfirmIcon(), p.onCheck)
	p.nextBtn = ttwidget.NewButtonWithIcon("Next", theme.NavigateNextIcon(), p.onNext)
	p.toggleBtn = ttwidget.NewButtonWithIcon("Switch", theme.ViewRefreshIcon(), p.onToggle)
	p.speakBtn = ttwidget.NewButtonWithIcon("", theme.VolumeUpIcon(), p.onSpeak)

	p.content = container.NewBorder(
		container.NewVBox(
			container.NewHBox(p.directionLabel, p.toggleBtn),
			widget.NewSeparator(),
		),
		p.scoreLabel,
		nil, nil,
		container.NewVBox(
			container.NewBorder(nil, nil, nil, p.speakBtn, p.promptLabel),
			p.answerEntry,
			container.NewHBox(p.checkBtn, p.nextBtn),
			p.resultLabel,
		),
	)

	p.render()
	return p
}

func (p *quizPanel) setupTooltips() {
	p.checkBtn.SetToolTip("Check the answer (Enter)")
	p.nextBtn.SetToolTip("Next question (n)")
	p.toggleBtn.SetToolTip("Switch between asking for the word and the reading (t)")
	p.speakBtn.SetToolTip("Speak the current word")
}

// refresh swaps in the new collection, staying on the current question
func (p *quizPanel) refresh(words []wordstore.Word) {
	if p.quiz == nil {
		p.quiz = quiz.New(words, func(id string, correct bool) {
			log.Printf("Quiz answer for %s: correct=%t", id, correct)
		})
		p.render()
		return
	}

	prev, _ := p.quiz.Current()
	p.quiz.SetWords(words)
	if cur, ok := p.quiz.Current(); !ok || cur.ID != prev.ID {
		p.answerEntry.SetText("")
	}
	p.render()
}

func (p *quizPanel) onCheck() {
	if p.quiz == nil || p.quiz.Len() == 0 || p.quiz.Outcome() != quiz.Unanswered {
		return
	}
	if p.quiz.Check(p.answerEntry.Text) {
		p.correct++
	}
	p.answered++
	p.render()
}

func (p *quizPanel) onNext() {
	if p.quiz == nil || p.quiz.Len() == 0 {
		return
	}
	p.quiz.Next()
	p.answerEntry.SetText("")
	p.render()
	p.app.window.Canvas().Focus(p.answerEntry)
}

func (p *quizPanel) onToggle() {
	if p.quiz == nil {
		return
	}
	p.quiz.ToggleDirection()
	p.answerEntry.SetText("")
	p.render()
}

func (p *quizPanel) onSpeak() {
	if p.quiz == nil {
		return
	}
	if w, ok := p.quiz.Current(); ok {
		p.app.speak(w)
	}
}

func (p *quizPanel) render() {
	if p.quiz == nil || p.quiz.Len() == 0 {
		p.directionLabel.SetText("")
		p.promptLabel.SetText("No words available for practice. Please add some words first.")
		p.resultLabel.SetText("")
		p.scoreLabel.SetText("")
		p.answerEntry.Disable()
		p.checkBtn.Disable()
		p.nextBtn.Disable()
		p.speakBtn.Disable()
		return
	}

	p.answerEntry.Enable()
	p.nextBtn.Enable()
	p.speakBtn.Enable()

	p.directionLabel.SetText(directionText(p.quiz.Direction()))
	p.promptLabel.SetText(fmt.Sprintf("[%d/%d] %s", p.quiz.Index()+1, p.quiz.Len(), p.quiz.Prompt()))
	p.resultLabel.SetText(resultText(p.quiz.Outcome(), p.quiz.Expected()))
	p.scoreLabel.SetText(fmt.Sprintf("Score: %d/%d", p.correct, p.answered))

	if p.quiz.Outcome() == quiz.Unanswered {
		p.checkBtn.Enable()
	} else {
		p.checkBtn.Disable()
	}
}

func directionText(d quiz.Direction) string {
	if d == quiz.ReadingFromWord {
		return "Type the reading of the word"
	}
	return "Type the word for the reading"
}

func resultText(outcome quiz.Outcome, expected string) string {
	switch outcome {
	case quiz.Correct:
		return "Correct!"
	case quiz.Incorrect:
		return "Incorrect! The correct answer is: " + expected
	default:
		return ""
	}
}
