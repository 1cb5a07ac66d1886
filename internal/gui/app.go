package gui

import (
	"context"
	"fmt"
	"log"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	fynetooltip "github.com/dweymouth/fyne-tooltip"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"codeberg.org/snonux/kikitori/internal"
	"codeberg.org/snonux/kikitori/internal/archive"
	"codeberg.org/snonux/kikitori/internal/audio"
	"codeberg.org/snonux/kikitori/internal/reading"
	"codeberg.org/snonux/kikitori/internal/sequencer"
	"codeberg.org/snonux/kikitori/internal/wordstore"
)

// Application represents the main GUI application
type Application struct {
	// Fyne components
	app    fyne.App
	window fyne.Window

	// UI elements
	tabs        *container.AppTabs
	statusLabel *widget.Label
	backupBtn   *ttwidget.Button
	helpBtn     *ttwidget.Button

	// Panels
	wordList  *wordListPanel
	today     *dictationPanel
	daily     *dictationPanel
	quizPanel *quizPanel
	logViewer *LogViewer

	// Configuration and collaborators
	config      *Config
	store       *wordstore.Store
	speaker     audio.Speaker
	suggester   *reading.Suggester
	unsubscribe func()

	// Background work such as single word playback
	ctx    context.Context
	cancel context.CancelFunc
}

// Config holds GUI application configuration
type Config struct {
	Store     *wordstore.Store
	Speaker   audio.Speaker      // Nil falls back to printing the words
	Suggester *reading.Suggester // Nil disables reading suggestions
	StorePath string             // Database file for backups, empty disables them
	Interval  int                // Seconds between words
	Quota     string             // Initial daily quota, see sequencer.ParseQuota
}

// DefaultConfig returns default GUI configuration
func DefaultConfig() *Config {
	return &Config{
		Interval: sequencer.DefaultInterval,
		Quota:    fmt.Sprint(sequencer.DefaultQuota),
	}
}

// New creates a new GUI application
func New(config *Config) *Application {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Interval == 0 {
		config.Interval = sequencer.DefaultInterval
	}
	if config.Store == nil {
		store, err := wordstore.Open(context.Background(), wordstore.NewMemoryPersister())
		if err != nil {
			log.Fatalf("Failed to open in-memory word store: %v", err)
		}
		config.Store = store
	}

	speaker := config.Speaker
	if speaker == nil {
		speaker = audio.NewConsoleSpeaker(os.Stdout)
	}

	ctx, cancel := context.WithCancel(context.Background())

	myApp := app.NewWithID("org.codeberg.snonux.kikitori")
	myApp.SetIcon(GetAppIcon())

	a := &Application{
		app:       myApp,
		config:    config,
		store:     config.Store,
		speaker:   speaker,
		suggester: config.Suggester,
		ctx:       ctx,
		cancel:    cancel,
	}

	a.setupUI()
	return a
}

func (a *Application) setupUI() {
	a.window = a.app.NewWindow(fmt.Sprintf("kikitori v%s", internal.Version))
	a.window.SetIcon(GetAppIcon())
	a.window.Resize(fyne.NewSize(900, 650))

	// The log viewer goes first so panel constructors can already log
	a.logViewer = NewLogViewer()
	a.logViewer.StartCapture()

	a.wordList = newWordListPanel(a)
	a.today = newDictationPanel(a, sequencer.ModeToday)
	a.daily = newDictationPanel(a, sequencer.ModeDaily)
	a.quizPanel = newQuizPanel(a)

	a.tabs = container.NewAppTabs(
		container.NewTabItemWithIcon("Words", theme.ListIcon(), a.wordList.content),
		container.NewTabItemWithIcon("Today", theme.MediaPlayIcon(), a.today.content),
		container.NewTabItemWithIcon("Daily", theme.MediaMusicIcon(), a.daily.content),
		container.NewTabItemWithIcon("Quiz", theme.QuestionIcon(), a.quizPanel.content),
		container.NewTabItemWithIcon("Log", theme.DocumentIcon(), a.logViewer),
	)
	a.tabs.OnSelected = func(*container.TabItem) {
		// Only the visible dictation tab may keep talking
		a.pauseDictation(a.currentDictation())
	}

	a.backupBtn = ttwidget.NewButtonWithIcon("", theme.DocumentSaveIcon(), a.onBackup)
	if a.config.StorePath == "" {
		a.backupBtn.Disable()
	}
	a.helpBtn = ttwidget.NewButtonWithIcon("", theme.HelpIcon(), a.onShowHotkeys)

	a.statusLabel = widget.NewLabel("Ready")
	statusSection := container.NewBorder(
		nil, nil, nil,
		container.NewHBox(a.backupBtn, a.helpBtn),
		a.statusLabel,
	)

	content := container.NewBorder(nil, statusSection, nil, nil, a.tabs)

	// Add the tooltip layer to enable tooltips
	a.window.SetContent(fynetooltip.AddWindowToolTipLayer(content, a.window.Canvas()))

	// Now that tooltip layer is created, set all tooltips
	a.setupTooltips()

	a.unsubscribe = a.store.Subscribe(func(words []wordstore.Word) {
		fyne.Do(func() { a.refresh(words) })
	})
	a.refresh(a.store.Words())

	a.window.SetOnClosed(func() {
		a.unsubscribe()
		a.today.close()
		a.daily.close()
		a.cancel()
		a.logViewer.StopCapture()
	})

	a.setupKeyboardShortcuts()
}

// Run starts the GUI application
func (a *Application) Run() {
	a.window.ShowAndRun()
}

// refresh pushes the current collection into every panel
func (a *Application) refresh(words []wordstore.Word) {
	a.wordList.refresh(words)
	a.today.refresh(words)
	a.daily.refresh(words)
	a.quizPanel.refresh(words)
}

// currentDictation returns the dictation panel of the selected tab, if any
func (a *Application) currentDictation() *dictationPanel {
	switch a.tabs.SelectedIndex() {
	case 1:
		return a.today
	case 2:
		return a.daily
	default:
		return nil
	}
}

// pauseDictation pauses every dictation panel except keep
func (a *Application) pauseDictation(keep *dictationPanel) {
	for _, d := range []*dictationPanel{a.today, a.daily} {
		if d != nil && d != keep {
			d.pause()
		}
	}
}

// speak plays a single word in the background, pausing any dictation first
func (a *Application) speak(w wordstore.Word) {
	a.pauseDictation(nil)
	a.updateStatus(fmt.Sprintf("Speaking: %s", describeWord(w)))

	go func() {
		if err := a.speaker.Speak(a.ctx, w.SpeechText()); err != nil && a.ctx.Err() == nil {
			fyne.Do(func() {
				a.showError(fmt.Errorf("failed to speak %q: %w", w.Word, err))
			})
			return
		}
		fyne.Do(func() { a.updateStatus("Ready") })
	}()
}

func (a *Application) onBackup() {
	backup, err := archive.BackupFile(a.config.StorePath)
	if err != nil {
		a.showError(fmt.Errorf("backup failed: %w", err))
		return
	}
	a.updateStatus("Backed up to " + backup)
	dialog.ShowInformation("Backup", fmt.Sprintf("Word list backed up to:\n%s", backup), a.window)
}

func (a *Application) onShowHotkeys() {
	hotkeys := `[Project Page: https://codeberg.org/snonux/kikitori](https://codeberg.org/snonux/kikitori)

---

## Tabs
**1** Words  
**2** Today  
**3** Daily  
**4** Quiz  
**5** Log
  
## Words
**a** Focus the new word field  
**Enter** Add the word
  
## Dictation
**s** Start  
**p** Pause or resume  
**r** Replay from the first word
  
## Quiz
**Enter** Check the answer  
**n** Next question  
**t** Toggle direction
  
## General
**Esc** Unfocus field  
**h** Show hotkeys  
**q** Quit application  `

	content := widget.NewRichTextFromMarkdown(hotkeys)
	content.Wrapping = fyne.TextWrapWord

	scroll := container.NewScroll(container.NewPadded(content))
	scroll.SetMinSize(fyne.NewSize(500, 460))

	dialog.ShowCustom("Keyboard Shortcuts", "Close", scroll, a.window)
}

// setupTooltips sets up all tooltips after the tooltip layer has been created
func (a *Application) setupTooltips() {
	a.backupBtn.SetToolTip("Back up the word list")
	a.helpBtn.SetToolTip("Show hotkeys (h)")
	a.wordList.setupTooltips()
	a.today.setupTooltips()
	a.daily.setupTooltips()
	a.quizPanel.setupTooltips()
}

func (a *Application) setupKeyboardShortcuts() {
	a.window.Canvas().SetOnTypedRune(func(r rune) {
		// Typing into an entry must not trigger shortcuts
		if _, ok := a.window.Canvas().Focused().(*widget.Entry); ok {
			return
		}

		switch r {
		case '1', '2', '3', '4', '5':
			a.tabs.SelectIndex(int(r - '1'))
		case 'a', 'A':
			a.tabs.SelectIndex(0)
			a.window.Canvas().Focus(a.wordList.wordEntry)
		case 's', 'S':
			if d := a.currentDictation(); d != nil {
				d.onStart()
			}
		case 'p', 'P':
			if d := a.currentDictation(); d != nil {
				d.onPauseResume()
			}
		case 'r', 'R':
			if d := a.currentDictation(); d != nil {
				d.onReplay()
			}
		case 'n', 'N':
			if a.tabs.SelectedIndex() == 3 {
				a.quizPanel.onNext()
			}
		case 't', 'T':
			if a.tabs.SelectedIndex() == 3 {
				a.quizPanel.onToggle()
			}
		case 'h', 'H', '?':
			a.onShowHotkeys()
		case 'q', 'Q':
			a.window.Close()
		}
	})

	a.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			a.window.Canvas().Unfocus()
		}
	})
}

func (a *Application) updateStatus(message string) {
	a.statusLabel.SetText(message)
}

func (a *Application) showError(err error) {
	log.Printf("Error: %v", err)
	dialog.ShowError(err, a.window)
	a.updateStatus("Error: " + err.Error())
}
