package processor

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/kikitori/internal/cli"
	"codeberg.org/snonux/kikitori/internal/player"
	"codeberg.org/snonux/kikitori/internal/sheet"
	"codeberg.org/snonux/kikitori/internal/testutil"
	"codeberg.org/snonux/kikitori/internal/wordstore"
)

var testNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)

func newTestProcessor(t *testing.T, words ...wordstore.Word) (*Processor, *bytes.Buffer, *testutil.MockSpeaker) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	var out bytes.Buffer
	speaker := &testutil.MockSpeaker{}
	p := NewProcessor(cli.NewFlags())
	p.out = &out
	p.now = func() time.Time { return testNow }
	p.store = testutil.NewTestStore(t, words...)
	p.speaker = speaker
	return p, &out, speaker
}

func TestNewProcessor(t *testing.T) {
	flags := cli.NewFlags()
	p := NewProcessor(flags)

	if p == nil {
		t.Fatal("NewProcessor returned nil")
	}
	if p.flags != flags {
		t.Error("Processor flags not set correctly")
	}
	if p.store != nil || p.speaker != nil {
		t.Error("Store and speaker should open lazily")
	}
	assert.NoError(t, p.Close())
}

func TestAdd(t *testing.T) {
	p, out, _ := newTestProcessor(t)
	ctx := context.Background()

	require.NoError(t, p.Add(ctx, " 猫 ", "ねこ"))
	assert.Contains(t, out.String(), "Added: 猫 (ねこ)")

	err := p.Add(ctx, "猫", "ねこ")
	assert.True(t, errors.Is(err, ErrDuplicate), "got %v", err)

	require.NoError(t, p.Add(ctx, "猫", ""))
	assert.Error(t, p.Add(ctx, "  ", "x"))

	words := p.store.Words()
	require.Len(t, words, 2)
	assert.Equal(t, "2024-5-1", words[0].Date)
}

func TestListDeleteUpdate(t *testing.T) {
	p, out, _ := newTestProcessor(t, testutil.Words("2024-4-30", "猫", "ねこ", "犬", "いぬ")...)
	ctx := context.Background()

	var list bytes.Buffer
	require.NoError(t, p.List(ctx, &list))
	assert.Contains(t, list.String(), "ID")
	assert.Contains(t, list.String(), "いぬ")
	assert.Contains(t, list.String(), "2 words")

	newWord := "子猫"
	require.NoError(t, p.Update(ctx, "w1", &newWord, nil))
	w, _ := p.store.Get("w1")
	assert.Equal(t, "子猫", w.Word)
	assert.Equal(t, "ねこ", w.Reading)

	assert.Error(t, p.Update(ctx, "missing", &newWord, nil))

	require.NoError(t, p.Delete(ctx, []string{"w2", "missing"}))
	assert.Contains(t, out.String(), "Deleted 1 of 2 word(s)")
	assert.Equal(t, 1, p.store.Len())
}

func TestImportExport(t *testing.T) {
	p, out, _ := newTestProcessor(t, testutil.Words("2024-4-30", "猫", "ねこ")...)
	ctx := context.Background()
	dir := t.TempDir()

	in := filepath.Join(dir, "in.csv")
	testutil.CreateTestFile(t, in, []byte("单词,假名\n猫,ねこ\n犬,いぬ\n犬,いぬ\n,orphan\n"))

	require.NoError(t, p.Import(ctx, in))
	assert.Contains(t, out.String(), "Imported 1, 2 duplicates skipped")

	today := p.store.AddedOn("2024-5-1")
	require.Len(t, today, 1)
	assert.Equal(t, "犬", today[0].Word)

	exported := filepath.Join(dir, "out.xlsx")
	require.NoError(t, p.Export(ctx, exported))
	rows, err := sheet.ReadFile(exported)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	assert.Error(t, p.Import(ctx, filepath.Join(dir, "in.txt")))
}

func TestTemplate(t *testing.T) {
	p, _, _ := newTestProcessor(t)
	path := filepath.Join(t.TempDir(), "template.csv")

	require.NoError(t, p.Template(path))
	testutil.AssertFileContains(t, path, "word,reading")
}

func TestSpeak(t *testing.T) {
	p, _, speaker := newTestProcessor(t)

	require.NoError(t, p.Speak(context.Background(), "おはよう"))
	assert.Equal(t, []string{"おはよう"}, speaker.Spoken())
}

func TestVoices(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	p, _, _ := newTestProcessor(t)

	var out bytes.Buffer
	require.NoError(t, p.Voices(context.Background(), "gemini", &out))
	assert.Equal(t, "Gemini voices:", strings.SplitN(out.String(), "\n", 2)[0])
	assert.Contains(t, out.String(), "  Kore\n")

	assert.Error(t, p.Voices(context.Background(), "festival", &out))
}

func TestCache(t *testing.T) {
	p, _, _ := newTestProcessor(t)
	dir := filepath.Join(t.TempDir(), "audio")
	viper.Set("speech.cache_dir", dir)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, p.Cache(ctx, false, &out))
	assert.Equal(t, "Audio cache: "+dir+"\n0 files, 0 B\n", out.String())

	testutil.CreateTestFile(t, filepath.Join(dir, "ab", "cdef.mp3"), []byte("mp3!"))
	testutil.CreateTestFile(t, filepath.Join(dir, "12", "3456.wav"), []byte("wav!"))

	out.Reset()
	require.NoError(t, p.Cache(ctx, false, &out))
	assert.Contains(t, out.String(), "2 files, 8 B")

	out.Reset()
	require.NoError(t, p.Cache(ctx, true, &out))
	assert.Equal(t, "Removed 2 cached audio files (8 B)\n", out.String())
	assert.NoDirExists(t, dir)
}

func TestPlayNothingToPlay(t *testing.T) {
	p, out, speaker := newTestProcessor(t, testutil.Words("2024-4-30", "猫", "ねこ")...)
	p.flags.Mode = "today"

	require.NoError(t, p.Play(context.Background()))
	assert.Contains(t, out.String(), "No words to play")
	assert.Empty(t, speaker.Spoken())
}

func TestPlayInvalidSettings(t *testing.T) {
	p, _, _ := newTestProcessor(t)

	p.flags.Mode = "weekly"
	assert.Error(t, p.Play(context.Background()))

	p.flags.Mode = "daily"
	p.flags.Quota = "7"
	assert.Error(t, p.Play(context.Background()))
}

func TestPlayDailyQuota(t *testing.T) {
	p, out, speaker := newTestProcessor(t, testutil.Words("2024-4-30", "猫", "ねこ", "犬", "", "鳥", "とり")...)
	clock := clockwork.NewFakeClock()
	p.playerOpts = []player.Option{player.WithClock(clock)}
	p.flags.Quota = "custom:2"

	done := make(chan error, 1)
	go func() { done <- p.Play(context.Background()) }()

	// The first word is spoken right away, the second after the interval
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(2 * time.Second)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Play did not finish")
	}

	assert.Equal(t, []string{"ねこ", "犬"}, speaker.Spoken())
	assert.Contains(t, out.String(), "[1/2] 猫 (ねこ)")
	assert.Contains(t, out.String(), "[2/2] 犬")
	assert.Contains(t, out.String(), "Done!")
}

func TestPlayCanceled(t *testing.T) {
	p, out, _ := newTestProcessor(t, testutil.Words("2024-4-30", "猫", "ねこ", "犬", "")...)
	p.playerOpts = []player.Option{player.WithClock(clockwork.NewFakeClock())}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Play(ctx))
	assert.Contains(t, out.String(), "Stopped")
}

func TestQuiz(t *testing.T) {
	p, _, _ := newTestProcessor(t, testutil.Words("2024-4-30", "neko", "ねこ", "犬", "いぬ")...)

	var out bytes.Buffer
	in := strings.NewReader(" Neko \nねこ\n")
	require.NoError(t, p.Quiz(context.Background(), in, &out))

	assert.Contains(t, out.String(), "[1/2] ねこ > Correct!")
	assert.Contains(t, out.String(), "Incorrect! The correct answer is: 犬")
	assert.Contains(t, out.String(), "Score: 1/2")
}

func TestQuizReverseAndQuit(t *testing.T) {
	p, _, _ := newTestProcessor(t, testutil.Words("2024-4-30", "猫", "ねこ", "犬", "いぬ")...)
	p.flags.Reverse = true

	var out bytes.Buffer
	require.NoError(t, p.Quiz(context.Background(), strings.NewReader("ねこ\n:q\n"), &out))

	assert.Contains(t, out.String(), "[1/2] 猫 > Correct!")
	assert.Contains(t, out.String(), "Score: 1/1")
}

func TestQuizEmpty(t *testing.T) {
	p, _, _ := newTestProcessor(t)

	var out bytes.Buffer
	require.NoError(t, p.Quiz(context.Background(), strings.NewReader(""), &out))
	assert.Contains(t, out.String(), "No words available")
}

func TestSQLiteStoreThroughConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	dbPath := filepath.Join(t.TempDir(), "words.db")
	viper.Set("store.path", dbPath)

	p := NewProcessor(cli.NewFlags())
	p.out = &bytes.Buffer{}
	require.NoError(t, p.Add(context.Background(), "猫", "ねこ"))
	require.NoError(t, p.Close())

	// A second processor sees the saved word
	p2 := NewProcessor(cli.NewFlags())
	p2.out = &bytes.Buffer{}
	defer p2.Close()
	assert.ErrorIs(t, p2.Add(context.Background(), "猫", "ねこ"), ErrDuplicate)

	require.NoError(t, p2.Backup(context.Background()))
	testutil.AssertFileExists(t, filepath.Join(filepath.Dir(dbPath), "archive"))
}
