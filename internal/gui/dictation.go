package gui

import (
	"fmt"
	"log"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"codeberg.org/snonux/kikitori/internal"
	"codeberg.org/snonux/kikitori/internal/player"
	"codeberg.org/snonux/kikitori/internal/sequencer"
	"codeberg.org/snonux/kikitori/internal/wordstore"
)

const (
	orderSequential = "Sequential"
	orderShuffled   = "Shuffled"

	quotaAll    = "All"
	quotaCustom = "Custom"
)

// dictationPanel plays the today or daily play list through its own player
type dictationPanel struct {
	app    *Application
	mode   sequencer.Mode
	player *player.Player

	quotaSelect    *widget.Select
	customEntry    *widget.Entry
	intervalSlider *widget.Slider
	intervalLabel  *widget.Label
	orderRadio     *widget.RadioGroup
	revealCheck    *widget.Check

	startBtn  *ttwidget.Button
	pauseBtn  *ttwidget.Button
	resumeBtn *ttwidget.Button
	replayBtn *ttwidget.Button

	stateLabel    *widget.Label
	progressLabel *widget.Label
	currentLabel  *widget.Label
	summaryLabel  *widget.Label
	content       fyne.CanvasObject

	words    []wordstore.Word
	snapshot sequencer.Snapshot
}

func newDictationPanel(a *Application, mode sequencer.Mode) *dictationPanel {
	d := &dictationPanel{app: a, mode: mode}

	d.player = player.New(a.speaker, player.WithOnChange(func(snap sequencer.Snapshot) {
		fyne.Do(func() { d.render(snap) })
	}))

	d.stateLabel = widget.NewLabel("")
	d.progressLabel = widget.NewLabel("")
	d.currentLabel = widget.NewLabel("")
	d.currentLabel.Alignment = fyne.TextAlignCenter
	d.currentLabel.TextStyle = fyne.TextStyle{Bold: true}
	d.summaryLabel = widget.NewLabel("")
	d.summaryLabel.TextStyle = fyne.TextStyle{Italic: true}

	// Widget callbacks below fire while the panel is built
	d.quotaSelect = widget.NewSelect(quotaOptions(), func(string) { d.onQuotaChanged() })
	d.customEntry = widget.NewEntry()
	d.customEntry.SetPlaceHolder("Number of words")
	d.customEntry.OnChanged = func(string) { d.onQuotaChanged() }
	option, custom := quotaSelection(a.config.Quota)
	d.customEntry.SetText(custom)
	d.quotaSelect.SetSelected(option)

	d.intervalLabel = widget.NewLabel("")
	d.intervalSlider = widget.NewSlider(sequencer.MinInterval, sequencer.MaxInterval)
	d.intervalSlider.Step = 1
	d.intervalSlider.OnChanged = func(v float64) {
		d.intervalLabel.SetText(fmt.Sprintf("Interval: %ds", int(v)))
		d.command(d.player.SetInterval(int(v)))
	}
	d.intervalSlider.SetValue(float64(clampInterval(a.config.Interval)))

	d.orderRadio = widget.NewRadioGroup([]string{orderSequential, orderShuffled}, d.onOrderChanged)
	d.orderRadio.Horizontal = true
	d.orderRadio.Required = true
	d.orderRadio.SetSelected(orderSequential)

	d.revealCheck = widget.NewCheck("Show word", func(bool) { d.render(d.snapshot) })

	d.startBtn = ttwidget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), d.onStart)
	d.pauseBtn = ttwidget.NewButtonWithIcon("Pause", theme.MediaPauseIcon(), d.onPause)
	d.resumeBtn = ttwidget.NewButtonWithIcon("Resume", theme.MediaSkipNextIcon(), d.onResume)
	d.replayBtn = ttwidget.NewButtonWithIcon("Replay", theme.MediaReplayIcon(), d.onReplay)

	settings := container.NewVBox(
		container.NewBorder(nil, nil, d.intervalLabel, nil, d.intervalSlider),
		container.NewHBox(d.orderRadio, widget.NewSeparator(), d.revealCheck),
	)
	if mode == sequencer.ModeDaily {
		settings.Add(container.NewBorder(nil, nil, widget.NewLabel("Quota:"), nil,
			container.NewGridWithColumns(2, d.quotaSelect, d.customEntry)))
	}

	controls := container.NewHBox(d.startBtn, d.pauseBtn, d.resumeBtn, d.replayBtn)
	status := container.NewVBox(
		container.NewHBox(d.stateLabel, d.progressLabel),
		d.currentLabel,
	)

	d.content = container.NewBorder(
		container.NewVBox(settings, widget.NewSeparator(), controls, widget.NewSeparator()),
		d.summaryLabel,
		nil, nil,
		container.NewCenter(status),
	)

	d.render(sequencer.Snapshot{Position: -1, Interval: clampInterval(a.config.Interval)})
	return d
}

func (d *dictationPanel) setupTooltips() {
	d.startBtn.SetToolTip("Start from the first word (s)")
	d.pauseBtn.SetToolTip("Pause (p)")
	d.resumeBtn.SetToolTip("Resume with the current word (p)")
	d.replayBtn.SetToolTip("Replay from the first word (r)")
}

// refresh takes a new collection. A running session keeps its play list;
// the new one is loaded on the next start.
func (d *dictationPanel) refresh(words []wordstore.Word) {
	d.words = words
	d.updateSummary()
}

// playlist derives the words to play from the current settings
func (d *dictationPanel) playlist() []wordstore.Word {
	sel := sequencer.Selection{
		Mode:  d.mode,
		Quota: d.quota(),
		Today: internal.Today(),
	}
	return sel.Playlist(d.words)
}

func (d *dictationPanel) quota() sequencer.Quota {
	return quotaFromOption(d.quotaSelect.Selected, d.customEntry.Text)
}

func (d *dictationPanel) onQuotaChanged() {
	if d.quotaSelect.Selected == quotaCustom {
		d.customEntry.Enable()
	} else {
		d.customEntry.Disable()
	}
	d.updateSummary()
}

func (d *dictationPanel) onOrderChanged(order string) {
	if d.player == nil {
		return
	}
	if order == orderShuffled {
		// Shuffling needs the play list loaded first
		d.command(d.player.SetPlaylist(d.playlist()))
		d.command(d.player.Shuffle())
		return
	}
	d.command(d.player.Sequential())
}

func (d *dictationPanel) onStart() {
	words := d.playlist()
	if len(words) == 0 {
		d.app.updateStatus(emptyPlaylistMessage(d.mode))
		return
	}
	d.app.pauseDictation(d)
	d.command(d.player.SetPlaylist(words))
	if d.orderRadio.Selected == orderShuffled && !d.state().Shuffled {
		d.command(d.player.Shuffle())
	}
	d.command(d.player.Start())
	log.Printf("Started %s dictation with %d words", d.mode, len(words))
}

func (d *dictationPanel) onPause() {
	d.command(d.player.Pause())
}

func (d *dictationPanel) onResume() {
	d.app.pauseDictation(d)
	d.command(d.player.Resume())
}

func (d *dictationPanel) onPauseResume() {
	switch d.state().State {
	case sequencer.Playing:
		d.onPause()
	case sequencer.Paused:
		d.onResume()
	default:
		d.onStart()
	}
}

func (d *dictationPanel) onReplay() {
	if d.state().Length == 0 {
		d.onStart()
		return
	}
	d.app.pauseDictation(d)
	d.command(d.player.Replay())
}

func (d *dictationPanel) pause() {
	if d.state().State == sequencer.Playing {
		d.onPause()
	}
}

// state asks the player directly; the rendered snapshot may lag behind
func (d *dictationPanel) state() sequencer.Snapshot {
	snap, err := d.player.Snapshot()
	if err != nil {
		return sequencer.Snapshot{Position: -1}
	}
	return snap
}

func (d *dictationPanel) close() {
	d.player.Close()
}

// command logs player errors; they only occur after the window closed
func (d *dictationPanel) command(err error) {
	if err != nil {
		log.Printf("Warning: %s dictation: %v", d.mode, err)
	}
}

func (d *dictationPanel) render(snap sequencer.Snapshot) {
	d.snapshot = snap

	d.stateLabel.SetText(snap.State.String())
	d.progressLabel.SetText(progressText(snap))

	switch {
	case snap.Current == nil:
		d.currentLabel.SetText("")
	case d.revealCheck.Checked:
		d.currentLabel.SetText(describeWord(*snap.Current))
	default:
		d.currentLabel.SetText("・・・")
	}

	d.startBtn.Enable()
	d.pauseBtn.Disable()
	d.resumeBtn.Disable()
	switch snap.State {
	case sequencer.Playing:
		d.pauseBtn.Enable()
	case sequencer.Paused:
		d.resumeBtn.Enable()
	}
	if snap.Length == 0 {
		d.replayBtn.Disable()
	} else {
		d.replayBtn.Enable()
	}
}

func (d *dictationPanel) updateSummary() {
	n := len(d.playlist())
	if n == 0 {
		d.summaryLabel.SetText(emptyPlaylistMessage(d.mode))
		return
	}
	d.summaryLabel.SetText(fmt.Sprintf("%d of %d words in the play list", n, len(d.words)))
}

func emptyPlaylistMessage(mode sequencer.Mode) string {
	if mode == sequencer.ModeToday {
		return "No words added today"
	}
	return "No words to play, add some first"
}

// quotaOptions lists the quota select entries
func quotaOptions() []string {
	options := make([]string, 0, len(sequencer.QuotaPresets)+2)
	for _, n := range sequencer.QuotaPresets {
		options = append(options, strconv.Itoa(n))
	}
	return append(options, quotaAll, quotaCustom)
}

// quotaSelection maps a configured quota to a select entry and custom text.
// Invalid configuration falls back to the default preset.
func quotaSelection(configured string) (option, custom string) {
	q, err := sequencer.ParseQuota(configured)
	if err != nil {
		log.Printf("Warning: %v", err)
		return strconv.Itoa(sequencer.DefaultQuota), ""
	}
	if q.All {
		return quotaAll, ""
	}
	for _, n := range sequencer.QuotaPresets {
		if n == q.N {
			return strconv.Itoa(n), ""
		}
	}
	return quotaCustom, strconv.Itoa(q.N)
}

// quotaFromOption turns the select entry and custom text into a quota
func quotaFromOption(option, custom string) sequencer.Quota {
	switch option {
	case quotaAll:
		return sequencer.Quota{All: true}
	case quotaCustom:
		return sequencer.CustomQuota(custom)
	}
	n, err := strconv.Atoi(option)
	if err != nil {
		return sequencer.Quota{N: sequencer.DefaultQuota}
	}
	return sequencer.Quota{N: n}
}

func clampInterval(seconds int) int {
	if seconds < sequencer.MinInterval {
		return sequencer.MinInterval
	}
	if seconds > sequencer.MaxInterval {
		return sequencer.MaxInterval
	}
	return seconds
}

// progressText renders the position as "[i/N]"
func progressText(snap sequencer.Snapshot) string {
	if snap.Position < 0 {
		if snap.Length == 0 {
			return ""
		}
		return fmt.Sprintf("[-/%d]", snap.Length)
	}
	return fmt.Sprintf("[%d/%d]", snap.Position+1, snap.Length)
}

func describeWord(w wordstore.Word) string {
	return describeEntry(wordstore.Entry{Word: w.Word, Reading: w.Reading})
}

func describeEntry(e wordstore.Entry) string {
	if e.Reading == "" {
		return e.Word
	}
	return fmt.Sprintf("%s (%s)", e.Word, e.Reading)
}
