package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/snonux/kikitori/internal"
)

// App is what the commands operate on
type App interface {
	RunGUIMode() error
	Add(ctx context.Context, word, reading string) error
	List(ctx context.Context, out io.Writer) error
	Delete(ctx context.Context, ids []string) error
	Update(ctx context.Context, id string, word, reading *string) error
	Import(ctx context.Context, file string) error
	Export(ctx context.Context, file string) error
	Template(file string) error
	Speak(ctx context.Context, text string) error
	Voices(ctx context.Context, provider string, out io.Writer) error
	Play(ctx context.Context) error
	Quiz(ctx context.Context, in io.Reader, out io.Writer) error
	Backup(ctx context.Context) error
	Cache(ctx context.Context, clear bool, out io.Writer) error
}

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags, app App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kikitori",
		Short: "Japanese vocabulary dictation player",
		Long: `kikitori keeps a list of Japanese words and reads them aloud for
dictation practice.

Words are spoken in list or shuffled order with a pause between them.
Lists can be imported from and exported to .xlsx, .csv or .txt files.

Examples:
  kikitori                              # Launch interactive GUI (default)
  kikitori add 猫 ねこ                  # Add a word with its reading
  kikitori import words.xlsx            # Import a word list
  kikitori play --mode today --shuffle  # Dictate today's words`,
		Args:    cobra.NoArgs,
		Version: internal.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunGUIMode()
		},
		SilenceUsage: true,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	rootCmd.AddCommand(
		newAddCommand(app),
		newListCommand(app),
		newDeleteCommand(flags, app),
		newUpdateCommand(flags, app),
		newImportCommand(app),
		newExportCommand(app),
		newTemplateCommand(app),
		newSpeakCommand(app),
		newVoicesCommand(app),
		newPlayCommand(flags, app),
		newQuizCommand(flags, app),
		newBackupCommand(app),
		newCacheCommand(flags, app),
	)

	return rootCmd
}

// DefaultDBPath returns the word database location below the XDG state directory
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "kikitori", "words.db")
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.kikitori.yaml)")
	pf.StringVar(&flags.DBPath, "db", DefaultDBPath(), "Word database file")
	pf.BoolVar(&flags.AutoReading, "auto-reading", false, "Fill in missing readings from the built-in dictionary")

	// Speech flags
	pf.StringVar(&flags.SpeechProvider, "speech-provider", flags.SpeechProvider, "Speech provider: espeak, openai, gemini or console")
	pf.StringVar(&flags.Fallback, "speech-fallback", "", "Provider used when the speech provider fails")
	pf.StringVar(&flags.Voice, "voice", "", "Voice name (provider specific)")
	pf.StringVar(&flags.Language, "lang", flags.Language, "Speech language tag")
	pf.Float64Var(&flags.Rate, "rate", flags.Rate, "Speech rate (1.0 is normal)")
	pf.Float64Var(&flags.Pitch, "pitch", flags.Pitch, "Speech pitch (1.0 is normal)")
	pf.Float64Var(&flags.Volume, "volume", flags.Volume, "Speech volume (0.0 to 2.0)")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

// flagBinding ties a command line flag to a config key
type flagBinding struct {
	key  string
	flag string
}

var persistentBindings = []flagBinding{
	{"store.path", "db"},
	{"reading.auto", "auto-reading"},
	{"speech.provider", "speech-provider"},
	{"speech.fallback", "speech-fallback"},
	{"speech.voice", "voice"},
	{"speech.language", "lang"},
	{"speech.rate", "rate"},
	{"speech.pitch", "pitch"},
	{"speech.volume", "volume"},
}

var playBindings = []flagBinding{
	{"play.mode", "mode"},
	{"play.quota", "quota"},
	{"play.interval", "interval"},
}

func bindFlagsToViper(cmd *cobra.Command) {
	bindFlags(cmd.PersistentFlags(), persistentBindings)
}

// bindFlags lets an explicitly set flag override the config file value
func bindFlags(fs *pflag.FlagSet, bindings []flagBinding) {
	for _, b := range bindings {
		if f := fs.Lookup(b.flag); f != nil {
			viper.BindPFlag(b.key, f)
		}
	}
}

func newAddCommand(app App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <word> [reading]",
		Short: "Add a word",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reading := ""
			if len(args) == 2 {
				reading = args[1]
			}
			return app.Add(cmd.Context(), args[0], reading)
		},
	}
}

func newListCommand(app App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all words",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.List(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func newDeleteCommand(flags *Flags, app App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete words by ID",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !flags.Yes && !Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete %d word(s)?", len(args))) {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing deleted")
				return nil
			}
			return app.Delete(cmd.Context(), args)
		},
	}
	cmd.Flags().BoolVarP(&flags.Yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newUpdateCommand(flags *Flags, app App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the word or reading of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var word, reading *string
			if cmd.Flags().Changed("word") {
				word = &flags.NewWord
			}
			if cmd.Flags().Changed("reading") {
				reading = &flags.NewReading
			}
			if word == nil && reading == nil {
				return fmt.Errorf("nothing to update, use --word or --reading")
			}
			return app.Update(cmd.Context(), args[0], word, reading)
		},
	}
	cmd.Flags().StringVar(&flags.NewWord, "word", "", "New primary form")
	cmd.Flags().StringVar(&flags.NewReading, "reading", "", "New reading (empty to clear)")
	return cmd
}

func newImportCommand(app App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import words from an .xlsx, .csv or .txt file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Import(cmd.Context(), args[0])
		},
	}
}

func newExportCommand(app App) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export all words to an .xlsx, .csv or .txt file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Export(cmd.Context(), args[0])
		},
	}
}

func newTemplateCommand(app App) *cobra.Command {
	return &cobra.Command{
		Use:   "template <file>",
		Short: "Write an import template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Template(args[0])
		},
	}
}

func newSpeakCommand(app App) *cobra.Command {
	return &cobra.Command{
		Use:   "speak <text>",
		Short: "Say a text with the configured voice",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Speak(cmd.Context(), strings.Join(args, " "))
		},
	}
}

func newPlayCommand(flags *Flags, app App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Dictate words",
		Long: `Dictate words aloud, one after another.

Mode "today" plays the words added today, mode "daily" plays the first
words of the list up to the quota (10, 20, 50, 100, 200, all or custom:N).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Play(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&flags.Mode, "mode", "m", flags.Mode, "Word selection: today or daily")
	cmd.Flags().StringVarP(&flags.Quota, "quota", "q", flags.Quota, "Words per daily session: 10, 20, 50, 100, 200, all or custom:N")
	cmd.Flags().IntVarP(&flags.Interval, "interval", "i", flags.Interval, "Seconds between words (1 to 10)")
	cmd.Flags().BoolVarP(&flags.Shuffle, "shuffle", "s", false, "Play in random order")
	cmd.Flags().Int64Var(&flags.Seed, "seed", 0, "Random seed for a reproducible order (0 picks one)")

	bindFlags(cmd.Flags(), playBindings)
	return cmd
}

func newQuizCommand(flags *Flags, app App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Type the word for each reading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Quiz(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVarP(&flags.Reverse, "reverse", "r", false, "Show the word and ask for the reading")
	return cmd
}

func newVoicesCommand(app App) *cobra.Command {
	return &cobra.Command{
		Use:   "voices [provider]",
		Short: "List the voices of every speech provider, or of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := ""
			if len(args) == 1 {
				provider = args[0]
			}
			return app.Voices(cmd.Context(), provider, cmd.OutOrStdout())
		},
	}
}

func newBackupCommand(app App) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Copy the word database into the archive directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Backup(cmd.Context())
		},
	}
}

func newCacheCommand(flags *Flags, app App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Show or clear the synthesized speech cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Cache(cmd.Context(), flags.ClearCache, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&flags.ClearCache, "clear", false, "Remove all cached audio files")
	return cmd
}

// Confirm asks a yes/no question and reports whether the answer was yes
func Confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
