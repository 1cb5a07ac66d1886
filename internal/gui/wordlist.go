package gui

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"codeberg.org/snonux/kikitori/internal"
	"codeberg.org/snonux/kikitori/internal/sheet"
	"codeberg.org/snonux/kikitori/internal/wordstore"
)

var sheetExtensions = []string{".xlsx", ".xlsm", ".csv", ".txt"}

// wordListPanel is the tab for adding, importing, exporting and deleting words
type wordListPanel struct {
	app *Application

	wordEntry    *widget.Entry
	readingEntry *widget.Entry
	addBtn       *ttwidget.Button
	suggestBtn   *ttwidget.Button

	importBtn    *ttwidget.Button
	exportBtn    *ttwidget.Button
	templateBtn  *ttwidget.Button
	selectAllBtn *ttwidget.Button
	invertBtn    *ttwidget.Button
	deleteBtn    *ttwidget.Button

	list       *widget.List
	countLabel *widget.Label
	content    fyne.CanvasObject

	words    []wordstore.Word
	selected map[string]bool
}

func newWordListPanel(a *Application) *wordListPanel {
	p := &wordListPanel{
		app:      a,
		selected: make(map[string]bool),
	}

	p.wordEntry = widget.NewEntry()
	p.wordEntry.SetPlaceHolder("Word (e.g. 猫)...")
	p.wordEntry.OnSubmitted = func(string) { p.onAdd() }

	p.readingEntry = widget.NewEntry()
	p.readingEntry.SetPlaceHolder("Reading (e.g. ねこ, optional)...")
	p.readingEntry.OnSubmitted = func(string) { p.onAdd() }

	p.addBtn = ttwidget.NewButtonWithIcon("", theme.ContentAddIcon(), p.onAdd)
	p.suggestBtn = ttwidget.NewButtonWithIcon("", theme.SearchIcon(), p.onSuggest)
	if a.suggester == nil {
		p.suggestBtn.Disable()
	}

	inputSection := container.NewBorder(
		nil, nil, nil,
		container.NewHBox(p.suggestBtn, p.addBtn),
		container.NewGridWithColumns(2, p.wordEntry, p.readingEntry),
	)

	p.importBtn = ttwidget.NewButtonWithIcon("Import", theme.DownloadIcon(), p.onImport)
	p.exportBtn = ttwidget.NewButtonWithIcon("Export", theme.UploadIcon(), p.onExport)
	p.templateBtn = ttwidget.NewButtonWithIcon("Template", theme.DocumentCreateIcon(), p.onTemplate)
	p.selectAllBtn = ttwidget.NewButtonWithIcon("", theme.CheckButtonCheckedIcon(), p.onSelectAll)
	p.invertBtn = ttwidget.NewButtonWithIcon("", theme.ViewRefreshIcon(), p.onInvert)
	p.deleteBtn = ttwidget.NewButtonWithIcon("", theme.DeleteIcon(), p.onDeleteSelected)
	p.deleteBtn.Importance = widget.DangerImportance

	toolbar := container.NewHBox(
		p.importBtn,
		p.exportBtn,
		p.templateBtn,
		widget.NewSeparator(),
		p.selectAllBtn,
		p.invertBtn,
		p.deleteBtn,
	)

	p.list = widget.NewList(
		func() int { return len(p.words) },
		func() fyne.CanvasObject { return newWordRow() },
		p.updateRow,
	)

	p.countLabel = widget.NewLabel("")
	p.countLabel.TextStyle = fyne.TextStyle{Italic: true}

	p.content = container.NewBorder(
		container.NewVBox(toolbar, widget.NewSeparator(), inputSection),
		p.countLabel,
		nil, nil,
		p.list,
	)
	return p
}

func (p *wordListPanel) setupTooltips() {
	p.addBtn.SetToolTip("Add word (Enter)")
	p.suggestBtn.SetToolTip("Suggest the reading")
	p.importBtn.SetToolTip("Import words from .xlsx, .csv or .txt")
	p.exportBtn.SetToolTip("Export all words to .xlsx, .csv or .txt")
	p.templateBtn.SetToolTip("Save an import template")
	p.selectAllBtn.SetToolTip("Select all")
	p.invertBtn.SetToolTip("Invert selection")
	p.deleteBtn.SetToolTip("Delete selected words")
}

// refresh shows the new collection and forgets selections of removed words
func (p *wordListPanel) refresh(words []wordstore.Word) {
	p.words = words

	present := make(map[string]bool, len(words))
	for _, w := range words {
		present[w.ID] = true
	}
	for id := range p.selected {
		if !present[id] {
			delete(p.selected, id)
		}
	}

	p.list.Refresh()
	p.updateCount()
}

func (p *wordListPanel) updateRow(id widget.ListItemID, obj fyne.CanvasObject) {
	if id >= len(p.words) {
		return
	}
	w := p.words[id]
	row := obj.(*wordRow)

	row.check.OnChanged = nil
	row.check.SetChecked(p.selected[w.ID])
	row.check.OnChanged = func(checked bool) {
		if checked {
			p.selected[w.ID] = true
		} else {
			delete(p.selected, w.ID)
		}
		p.updateCount()
	}

	row.label.SetText(describeWord(w))
	row.date.SetText(w.Date)
	row.speakBtn.OnTapped = func() { p.app.speak(w) }
	row.editBtn.OnTapped = func() { p.onEdit(w) }
}

func (p *wordListPanel) updateCount() {
	p.countLabel.SetText(fmt.Sprintf("%d words, %d selected", len(p.words), len(p.selected)))
	if len(p.selected) == 0 {
		p.deleteBtn.Disable()
	} else {
		p.deleteBtn.Enable()
	}
}

func (p *wordListPanel) onAdd() {
	word := strings.TrimSpace(p.wordEntry.Text)
	if word == "" {
		return
	}
	readingText := strings.TrimSpace(p.readingEntry.Text)
	if readingText == "" && p.app.suggester != nil {
		if suggested, ok := p.app.suggester.Suggest(word); ok {
			readingText = suggested
		}
	}

	entry := wordstore.Entry{Word: word, Reading: readingText, Date: internal.Today()}
	if !p.app.store.AddWord(entry) {
		dialog.ShowInformation("Duplicate", fmt.Sprintf("%s is already in the list", describeEntry(entry)), p.app.window)
		return
	}

	log.Printf("Added: %s", describeEntry(entry))
	p.app.updateStatus("Added: " + describeEntry(entry))
	p.wordEntry.SetText("")
	p.readingEntry.SetText("")
	p.app.window.Canvas().Focus(p.wordEntry)
}

func (p *wordListPanel) onSuggest() {
	word := strings.TrimSpace(p.wordEntry.Text)
	if word == "" || p.app.suggester == nil {
		return
	}
	if suggested, ok := p.app.suggester.Suggest(word); ok {
		p.readingEntry.SetText(suggested)
		return
	}
	p.app.updateStatus(fmt.Sprintf("No reading suggestion for %s", word))
}

func (p *wordListPanel) onEdit(w wordstore.Word) {
	wordEntry := widget.NewEntry()
	wordEntry.SetText(w.Word)
	readingEntry := widget.NewEntry()
	readingEntry.SetText(w.Reading)

	items := []*widget.FormItem{
		widget.NewFormItem("Word", wordEntry),
		widget.NewFormItem("Reading", readingEntry),
	}
	d := dialog.NewForm("Edit word", "Save", "Cancel", items, func(save bool) {
		if !save {
			return
		}
		word := strings.TrimSpace(wordEntry.Text)
		if word == "" {
			p.app.showError(errors.New("word must not be empty"))
			return
		}
		readingText := strings.TrimSpace(readingEntry.Text)
		p.app.store.UpdateWord(w.ID, wordstore.Patch{Word: &word, Reading: &readingText})
		p.app.updateStatus("Updated: " + describeEntry(wordstore.Entry{Word: word, Reading: readingText}))
	}, p.app.window)
	d.Resize(fyne.NewSize(400, 200))
	d.Show()
}

func (p *wordListPanel) onSelectAll() {
	for _, w := range p.words {
		p.selected[w.ID] = true
	}
	p.list.Refresh()
	p.updateCount()
}

func (p *wordListPanel) onInvert() {
	for _, w := range p.words {
		if p.selected[w.ID] {
			delete(p.selected, w.ID)
		} else {
			p.selected[w.ID] = true
		}
	}
	p.list.Refresh()
	p.updateCount()
}

func (p *wordListPanel) onDeleteSelected() {
	ids := p.selectedIDs()
	if len(ids) == 0 {
		return
	}

	question := fmt.Sprintf("Delete %d selected word(s)?", len(ids))
	dialog.ShowConfirm("Delete words", question, func(confirmed bool) {
		if !confirmed {
			return
		}
		removed := p.app.store.DeleteWords(ids)
		log.Printf("Deleted %d word(s)", removed)
		p.app.updateStatus(fmt.Sprintf("Deleted %d word(s)", removed))
	}, p.app.window)
}

// selectedIDs returns the selected IDs in list order
func (p *wordListPanel) selectedIDs() []string {
	var ids []string
	for _, w := range p.words {
		if p.selected[w.ID] {
			ids = append(ids, w.ID)
		}
	}
	return ids
}

func (p *wordListPanel) onImport() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			p.app.showError(err)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		format, err := sheet.FormatOf(reader.URI().Path())
		if err != nil {
			p.app.showError(err)
			return
		}
		rows, err := sheet.ReadRows(reader, format)
		if err != nil {
			p.app.showError(fmt.Errorf("failed to import %s: %w", reader.URI().Name(), err))
			return
		}

		res := p.app.store.AddWords(sheet.Entries(rows, internal.Today()))
		message := fmt.Sprintf("Imported %d, %d duplicates skipped", res.Added, res.Duplicated)
		log.Print(message)
		p.app.updateStatus(message)
		dialog.ShowInformation("Import", message, p.app.window)
	}, p.app.window)
	d.SetFilter(storage.NewExtensionFileFilter(sheetExtensions))
	d.Show()
}

func (p *wordListPanel) onExport() {
	p.saveSheet("words.xlsx", func(w fyne.URIWriteCloser, format sheet.Format) error {
		return sheet.WriteWords(w, format, p.app.store.ExportWords())
	})
}

func (p *wordListPanel) onTemplate() {
	p.saveSheet("template.csv", func(w fyne.URIWriteCloser, format sheet.Format) error {
		return sheet.WriteTemplateTo(w, format)
	})
}

// saveSheet asks for a target file and hands the open writer to write
func (p *wordListPanel) saveSheet(name string, write func(fyne.URIWriteCloser, sheet.Format) error) {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			p.app.showError(err)
			return
		}
		if writer == nil {
			return
		}

		path := writer.URI().Path()
		format, err := sheet.FormatOf(path)
		if err == nil {
			err = write(writer, format)
		}
		if closeErr := writer.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			p.app.showError(fmt.Errorf("failed to write %s: %w", path, err))
			return
		}

		log.Printf("Saved %s", path)
		p.app.updateStatus("Saved " + path)
	}, p.app.window)
	d.SetFileName(name)
	d.SetFilter(storage.NewExtensionFileFilter(sheetExtensions))
	d.Show()
}

// wordRow is one line of the word list
type wordRow struct {
	widget.BaseWidget

	check    *widget.Check
	label    *widget.Label
	date     *widget.Label
	speakBtn *widget.Button
	editBtn  *widget.Button
}

func newWordRow() *wordRow {
	r := &wordRow{
		check:    widget.NewCheck("", nil),
		label:    widget.NewLabel(""),
		date:     widget.NewLabel(""),
		speakBtn: widget.NewButtonWithIcon("", theme.VolumeUpIcon(), nil),
		editBtn:  widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), nil),
	}
	r.label.Truncation = fyne.TextTruncateEllipsis
	r.date.TextStyle = fyne.TextStyle{Italic: true}
	r.ExtendBaseWidget(r)
	return r
}

// CreateRenderer implements fyne.Widget
func (r *wordRow) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewBorder(
		nil, nil,
		r.check,
		container.NewHBox(r.date, r.speakBtn, r.editBtn),
		r.label,
	))
}
