package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"codeberg.org/snonux/kikitori/internal"
	"codeberg.org/snonux/kikitori/internal/archive"
	"codeberg.org/snonux/kikitori/internal/audio"
	"codeberg.org/snonux/kikitori/internal/cli"
	"codeberg.org/snonux/kikitori/internal/gui"
	"codeberg.org/snonux/kikitori/internal/models"
	"codeberg.org/snonux/kikitori/internal/player"
	"codeberg.org/snonux/kikitori/internal/reading"
	"codeberg.org/snonux/kikitori/internal/sequencer"
	"codeberg.org/snonux/kikitori/internal/sheet"
	"codeberg.org/snonux/kikitori/internal/wordstore"
)

// ErrDuplicate is returned when a word with the same reading already exists
var ErrDuplicate = errors.New("word already exists")

// Processor handles the main word processing logic
type Processor struct {
	flags *cli.Flags
	out   io.Writer
	now   func() time.Time

	// Opened on first use, after flags and config are parsed
	store     *wordstore.Store
	persister *wordstore.SQLitePersister
	speaker   audio.Speaker
	suggester *reading.Suggester

	playerOpts []player.Option
}

// NewProcessor creates a new word processor
func NewProcessor(flags *cli.Flags) *Processor {
	return &Processor{
		flags: flags,
		out:   os.Stdout,
		now:   time.Now,
	}
}

// Close releases the word database
func (p *Processor) Close() error {
	if p.persister == nil {
		return nil
	}
	err := p.persister.Close()
	p.persister = nil
	return err
}

// Add stores a new word stamped with today's date
func (p *Processor) Add(ctx context.Context, word, reading string) error {
	word = strings.TrimSpace(word)
	reading = strings.TrimSpace(reading)
	if word == "" {
		return fmt.Errorf("word cannot be empty")
	}

	store, err := p.openStore(ctx)
	if err != nil {
		return err
	}

	if reading == "" {
		reading = p.suggestReading(word)
	}

	if !store.AddWord(wordstore.Entry{Word: word, Reading: reading, Date: p.today()}) {
		return fmt.Errorf("%w: %s", ErrDuplicate, describe(word, reading))
	}
	fmt.Fprintf(p.out, "Added: %s\n", describe(word, reading))
	return nil
}

// List prints all words as a table
func (p *Processor) List(ctx context.Context, out io.Writer) error {
	store, err := p.openStore(ctx)
	if err != nil {
		return err
	}

	words := store.Words()
	if len(words) == 0 {
		fmt.Fprintln(out, "No words yet. Add some with 'kikitori add' or 'kikitori import'.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWORD\tREADING\tDATE")
	for _, w := range words {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", w.ID, w.Word, w.Reading, w.Date)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d words\n", len(words))
	return nil
}

// Delete removes the words with the given IDs. Confirmation happens in the
// calling layer.
func (p *Processor) Delete(ctx context.Context, ids []string) error {
	store, err := p.openStore(ctx)
	if err != nil {
		return err
	}

	removed := store.DeleteWords(ids)
	fmt.Fprintf(p.out, "Deleted %d of %d word(s)\n", removed, len(ids))
	return nil
}

// Update changes the word and/or the reading of an entry. nil leaves a
// field unchanged.
func (p *Processor) Update(ctx context.Context, id string, word, reading *string) error {
	store, err := p.openStore(ctx)
	if err != nil {
		return err
	}

	if _, ok := store.Get(id); !ok {
		return fmt.Errorf("no word with ID %s", id)
	}

	var patch wordstore.Patch
	if word != nil {
		w := strings.TrimSpace(*word)
		if w == "" {
			return fmt.Errorf("word cannot be empty")
		}
		patch.Word = &w
	}
	if reading != nil {
		r := strings.TrimSpace(*reading)
		patch.Reading = &r
	}
	store.UpdateWord(id, patch)

	updated, _ := store.Get(id)
	fmt.Fprintf(p.out, "Updated: %s\n", describe(updated.Word, updated.Reading))
	return nil
}

// Import adds the words of a spreadsheet file
func (p *Processor) Import(ctx context.Context, file string) error {
	store, err := p.openStore(ctx)
	if err != nil {
		return err
	}

	entries, err := sheet.Import(file, p.today())
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", file, err)
	}
	for i := range entries {
		if entries[i].Reading == "" {
			entries[i].Reading = p.suggestReading(entries[i].Word)
		}
	}

	res := store.AddWords(entries)
	fmt.Fprintf(p.out, "Imported %d, %d duplicates skipped\n", res.Added, res.Duplicated)
	return nil
}

// Export writes all words to a spreadsheet file
func (p *Processor) Export(ctx context.Context, file string) error {
	store, err := p.openStore(ctx)
	if err != nil {
		return err
	}

	words := store.ExportWords()
	if err := sheet.Export(file, words); err != nil {
		return fmt.Errorf("failed to export %s: %w", file, err)
	}
	fmt.Fprintf(p.out, "Exported %d words to %s\n", len(words), file)
	return nil
}

// Template writes an import template file
func (p *Processor) Template(file string) error {
	if err := sheet.WriteTemplate(file); err != nil {
		return err
	}
	fmt.Fprintf(p.out, "Template written to %s\n", file)
	return nil
}

// Speak says text once with the configured speaker
func (p *Processor) Speak(ctx context.Context, text string) error {
	speaker, err := p.openSpeaker(ctx)
	if err != nil {
		return err
	}
	return speaker.Speak(ctx, text)
}

// Voices lists the voices of provider, or of every provider when empty
func (p *Processor) Voices(ctx context.Context, provider string, out io.Writer) error {
	return models.NewLister(cli.GetOpenAIKey(), out).ListVoices(ctx, provider)
}

// Play dictates the words selected by the play settings and returns when
// the session is over or ctx is canceled
func (p *Processor) Play(ctx context.Context) error {
	mode, err := sequencer.ParseMode(setting("play.mode", p.flags.Mode))
	if err != nil {
		return err
	}
	quota, err := sequencer.ParseQuota(setting("play.quota", p.flags.Quota))
	if err != nil {
		return err
	}

	store, err := p.openStore(ctx)
	if err != nil {
		return err
	}

	sel := sequencer.Selection{Mode: mode, Quota: quota, Today: p.today()}
	playlist := sel.Playlist(store.Words())
	if len(playlist) == 0 {
		fmt.Fprintf(p.out, "No words to play in mode %s\n", mode)
		return nil
	}

	speaker, err := p.openSpeaker(ctx)
	if err != nil {
		return err
	}

	interval := p.flags.Interval
	if viper.IsSet("play.interval") {
		interval = viper.GetInt("play.interval")
	}

	opts := append([]player.Option{player.WithOnChange(p.progress())}, p.playerOpts...)
	if p.flags.Seed != 0 {
		opts = append(opts, player.WithRand(rand.New(rand.NewSource(p.flags.Seed))))
	}
	pl := player.New(speaker, opts...)
	defer pl.Close()

	order := "in order"
	if p.flags.Shuffle {
		order = "shuffled"
	}
	fmt.Fprintf(p.out, "Playing %d words (%s, %s, %ds apart). Press Ctrl+C to stop.\n", len(playlist), mode, order, interval)

	if err := pl.SetPlaylist(playlist); err != nil {
		return err
	}
	if err := pl.SetInterval(interval); err != nil {
		return err
	}
	if p.flags.Shuffle {
		if err := pl.Shuffle(); err != nil {
			return err
		}
	}
	if err := pl.Start(); err != nil {
		return err
	}

	if err := pl.Wait(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(p.out, "\nStopped")
			return nil
		}
		return err
	}
	fmt.Fprintln(p.out, "Done!")
	return nil
}

// progress prints each word as it is played
func (p *Processor) progress() func(sequencer.Snapshot) {
	last := -1
	return func(snap sequencer.Snapshot) {
		if snap.State != sequencer.Playing || snap.Current == nil || snap.Position == last {
			return
		}
		last = snap.Position
		fmt.Fprintf(p.out, "[%d/%d] %s\n", snap.Position+1, snap.Length, describe(snap.Current.Word, snap.Current.Reading))
	}
}

// Backup copies the word database into the archive directory
func (p *Processor) Backup(ctx context.Context) error {
	path := cli.StorePath()
	if _, err := archive.BackupFile(path); err != nil {
		return fmt.Errorf("failed to back up word list: %w", err)
	}
	return nil
}

// Cache prints the size of the speech cache, or empties it
func (p *Processor) Cache(ctx context.Context, clear bool, out io.Writer) error {
	dir := cli.SpeakerConfig().CacheDir
	if dir == "" {
		dir = audio.DefaultCacheDir()
	}

	files, size, err := audio.CacheStats(dir)
	if err != nil {
		return fmt.Errorf("failed to read audio cache: %w", err)
	}

	if !clear {
		fmt.Fprintf(out, "Audio cache: %s\n%d files, %s\n", dir, files, humanize.Bytes(uint64(size)))
		return nil
	}

	if err := audio.ClearCache(dir); err != nil {
		return fmt.Errorf("failed to clear audio cache: %w", err)
	}
	fmt.Fprintf(out, "Removed %d cached audio files (%s)\n", files, humanize.Bytes(uint64(size)))
	return nil
}

// RunGUIMode opens the word list window
func (p *Processor) RunGUIMode() error {
	ctx := context.Background()

	store, err := p.openStore(ctx)
	if err != nil {
		return err
	}

	// The GUI stays usable without a voice; speaking then reports the error
	speaker, err := p.openSpeaker(ctx)
	if err != nil {
		log.Printf("Warning: speech disabled: %v", err)
		speaker = nil
	}

	var suggester *reading.Suggester
	if p.autoReading() {
		suggester = p.loadSuggester()
	}

	app := gui.New(&gui.Config{
		Store:     store,
		Speaker:   speaker,
		Suggester: suggester,
		StorePath: cli.StorePath(),
		Interval:  p.flags.Interval,
		Quota:     setting("play.quota", p.flags.Quota),
	})
	app.Run()

	return nil
}

// Helper methods

func (p *Processor) openStore(ctx context.Context) (*wordstore.Store, error) {
	if p.store != nil {
		return p.store, nil
	}

	persister, err := wordstore.OpenSQLite(cli.StorePath())
	if err != nil {
		return nil, err
	}
	store, err := wordstore.Open(ctx, persister)
	if err != nil {
		persister.Close()
		return nil, err
	}

	p.persister = persister
	p.store = store
	return store, nil
}

func (p *Processor) openSpeaker(ctx context.Context) (audio.Speaker, error) {
	if p.speaker != nil {
		return p.speaker, nil
	}

	speaker, err := audio.NewSpeaker(ctx, cli.SpeakerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create speaker: %w", err)
	}
	if err := speaker.IsAvailable(); err != nil {
		return nil, fmt.Errorf("speech provider %s is not available: %w", speaker.Name(), err)
	}

	p.speaker = speaker
	return speaker, nil
}

func (p *Processor) autoReading() bool {
	if viper.IsSet("reading.auto") {
		return viper.GetBool("reading.auto")
	}
	return p.flags.AutoReading
}

// suggestReading returns the dictionary reading of word when automatic
// readings are enabled, or "" otherwise
func (p *Processor) suggestReading(word string) string {
	if !p.autoReading() {
		return ""
	}
	suggester := p.loadSuggester()
	if suggester == nil {
		return ""
	}
	r, _ := suggester.Suggest(word)
	return r
}

func (p *Processor) loadSuggester() *reading.Suggester {
	if p.suggester != nil {
		return p.suggester
	}
	suggester, err := reading.NewSuggester()
	if err != nil {
		log.Printf("Warning: reading suggestions unavailable: %v", err)
		return nil
	}
	p.suggester = suggester
	return suggester
}

func (p *Processor) today() string {
	return internal.DateString(p.now())
}

// setting returns the config value for key, or fallback when neither a
// changed flag nor the config file sets it
func setting(key, fallback string) string {
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return fallback
}

func describe(word, reading string) string {
	if reading == "" {
		return word
	}
	return fmt.Sprintf("%s (%s)", word, reading)
}
