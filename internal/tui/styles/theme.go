// Package styles defines the chatline TUI theme tokens.
package styles

// BaseColors defines global UI colors.
type BaseColors struct {
	Foreground string
	Muted      string
	Accent     string
	Border     string
}

// MessageColors defines colors for message bubbles.
type MessageColors struct {
	Own   string
	Other string
	Date  string
}

// ChromeColors defines non-content UI colors.
type ChromeColors struct {
	Header       string
	Footer       string
	SelectedItem string
	UnreadBadge  string
	Error        string
}

// Theme defines the chatline style tokens.
type Theme struct {
	Name    string
	Base    BaseColors
	Message MessageColors
	Chrome  ChromeColors
}

// DefaultTheme is used when no theme matches.
var DefaultTheme = Theme{
	Name: "default",
	Base: BaseColors{
		Foreground: "252",
		Muted:      "243",
		Accent:     "39",
		Border:     "238",
	},
	Message: MessageColors{
		Own:   "39",
		Other: "249",
		Date:  "243",
	},
	Chrome: ChromeColors{
		Header:       "236",
		Footer:       "235",
		SelectedItem: "24",
		UnreadBadge:  "160",
		Error:        "196",
	},
}

// HighContrastTheme favors readability on washed-out terminals.
var HighContrastTheme = Theme{
	Name: "high-contrast",
	Base: BaseColors{
		Foreground: "231",
		Muted:      "250",
		Accent:     "51",
		Border:     "255",
	},
	Message: MessageColors{
		Own:   "51",
		Other: "231",
		Date:  "250",
	},
	Chrome: ChromeColors{
		Header:       "232",
		Footer:       "232",
		SelectedItem: "21",
		UnreadBadge:  "201",
		Error:        "201",
	},
}

// Themes maps theme names to their tokens.
var Themes = map[string]Theme{
	DefaultTheme.Name:      DefaultTheme,
	HighContrastTheme.Name: HighContrastTheme,
}
