package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"codeberg.org/snonux/kikitori/internal/audio"
)

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".kikitori" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".kikitori")
	}

	// Environment variables
	viper.SetEnvPrefix("KIKITORI")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("speech.openai_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	for _, env := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}
	return viper.GetString("speech.gemini_key")
}

// StorePath returns the word database path
func StorePath() string {
	if path := viper.GetString("store.path"); path != "" {
		return path
	}
	return DefaultDBPath()
}

// SpeakerConfig builds the speech configuration from flags and the config file
func SpeakerConfig() *audio.Config {
	config := audio.DefaultSpeakerConfig()

	setString := func(key string, dst *string) {
		if viper.IsSet(key) {
			*dst = viper.GetString(key)
		}
	}
	setFloat := func(key string, dst *float64) {
		if viper.IsSet(key) {
			*dst = viper.GetFloat64(key)
		}
	}

	setString("speech.provider", &config.Provider)
	setString("speech.fallback", &config.Fallback)
	setString("speech.voice", &config.Voice)
	setString("speech.language", &config.Language)
	setFloat("speech.rate", &config.Rate)
	setFloat("speech.pitch", &config.Pitch)
	setFloat("speech.volume", &config.Volume)
	setString("speech.cache_dir", &config.CacheDir)
	setString("speech.player", &config.PlayerCmd)
	setString("speech.openai_model", &config.OpenAIModel)
	setString("speech.openai_voice", &config.OpenAIVoice)
	setString("speech.openai_instruction", &config.OpenAIInstruction)
	setString("speech.gemini_model", &config.GeminiModel)
	setString("speech.gemini_voice", &config.GeminiVoice)
	if viper.IsSet("speech.enable_cache") {
		config.EnableCache = viper.GetBool("speech.enable_cache")
	}

	// The locale prefix follows the language tag, "ja-JP" -> "ja"
	if lang, _, _ := strings.Cut(config.Language, "-"); lang != "" {
		config.LocalePrefix = strings.ToLower(lang)
	}
	setString("speech.locale", &config.LocalePrefix)

	config.OpenAIKey = GetOpenAIKey()
	config.GeminiKey = GetGeminiKey()
	return config
}
