package settings

// Settings control side effects of voting. The zero value is not the default; use Default.
type Settings struct {
	NotificationsEnabled bool `json:"notificationsEnabled"`
	AutoVoteOnVisit      bool `json:"autoVoteOnVisit"`
	CaptchaWarnings      bool `json:"captchaWarnings"`
}

// Default returns the settings used before the user changes anything.
func Default() Settings {
	return Settings{
		NotificationsEnabled: true,
		AutoVoteOnVisit:      true,
		CaptchaWarnings:      true,
	}
}
