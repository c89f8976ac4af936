package styles

// BaseColors defines global UI colors.
type BaseColors struct {
	Background string
	Foreground string
	Muted      string
	Accent     string
	Border     string
}

// MessageColors defines colors per message origin and delivery state.
type MessageColors struct {
	Own     string
	Other   string
	Pending string
	Failed  string
}

// StatusColors defines colors for read/unread and send progress.
type StatusColors struct {
	Unread  string
	Sending string
	Sent    string
}

// ChromeColors defines non-content UI colors.
type ChromeColors struct {
	Header       string
	Footer       string
	Badge        string
	SelectedItem string
}

// Theme defines the coachdesk TUI style tokens.
type Theme struct {
	Name string

	Base    BaseColors
	Message MessageColors
	Status  StatusColors
	Chrome  ChromeColors
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default":       DefaultTheme,
	"high-contrast": HighContrastTheme,
}
