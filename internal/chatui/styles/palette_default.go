package styles

// DefaultTheme is the baseline dark palette for the coachdesk TUI.
var DefaultTheme = Theme{
	Name: "default",
	Base: BaseColors{
		Background: "234",
		Foreground: "252",
		Muted:      "245",
		Accent:     "75",
		Border:     "240",
	},
	Message: MessageColors{
		Own:     "81",
		Other:   "147",
		Pending: "245",
		Failed:  "203",
	},
	Status: StatusColors{
		Unread:  "220",
		Sending: "245",
		Sent:    "41",
	},
	Chrome: ChromeColors{
		Header:       "111",
		Footer:       "110",
		Badge:        "203",
		SelectedItem: "75",
	},
}
