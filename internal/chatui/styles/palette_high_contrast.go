package styles

// HighContrastTheme maximizes foreground/background separation for
// low-vision and bright-environment use.
var HighContrastTheme = Theme{
	Name: "high-contrast",
	Base: BaseColors{
		Background: "16",
		Foreground: "231",
		Muted:      "250",
		Accent:     "51",
		Border:     "255",
	},
	Message: MessageColors{
		Own:     "51",
		Other:   "226",
		Pending: "250",
		Failed:  "196",
	},
	Status: StatusColors{
		Unread:  "226",
		Sending: "250",
		Sent:    "46",
	},
	Chrome: ChromeColors{
		Header:       "21",
		Footer:       "18",
		Badge:        "196",
		SelectedItem: "51",
	},
}
