package bot

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Syllable tiles per keyboard row
	SyllableTilesPerRow int
	// Letter tiles per keyboard row
	LetterTilesPerRow int
	// Days shown per row of the day picker
	DaysPerRow int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		SyllableTilesPerRow: 4,
		LetterTilesPerRow:   6,
		DaysPerRow:          5,
	}
}
