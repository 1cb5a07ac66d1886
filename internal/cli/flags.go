package cli

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile     string
	DBPath      string
	AutoReading bool

	// Speech flags
	SpeechProvider string
	Fallback       string
	Voice          string
	Language       string
	Rate           float64
	Pitch          float64
	Volume         float64

	// Play flags
	Mode     string
	Quota    string
	Interval int
	Shuffle  bool
	Seed     int64

	// Quiz flags
	Reverse bool

	// Delete flags
	Yes bool

	// Cache flags
	ClearCache bool

	// Update flags
	NewWord    string
	NewReading string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		SpeechProvider: "espeak",
		Language:       "ja-JP",
		Rate:           1.0,
		Pitch:          1.0,
		Volume:         1.0,
		Mode:           "daily",
		Quota:          "10",
		Interval:       2,
	}
}
