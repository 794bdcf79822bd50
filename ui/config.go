package ui

// Config contains keypad settings.
type Config struct {
	// Show the full key help below the keypad
	ShowFullHelp bool `env:"SOUNDS_KEYPAD_FULL_HELP" envDefault:"false"`

	// Run in the terminal's alternate screen
	AltScreen bool `env:"SOUNDS_KEYPAD_ALTSCREEN" envDefault:"true"`

	// Longest dialed number kept on screen
	MaxDialed int `env:"SOUNDS_KEYPAD_MAX_DIALED" envDefault:"32"`
}
