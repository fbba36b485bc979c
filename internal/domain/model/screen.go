package model

// Screen is everything the display collaborator needs to draw one frame.
type Screen struct {
	Locked   bool   `json:"locked"`
	Asleep   bool   `json:"asleep"`
	Selected int    `json:"selected"` // 0-based; meaningless when Total is 0.
	Total    int    `json:"total"`
	Name     string `json:"name"`
	Unsaved  bool   `json:"unsaved"`
}

// HasCredentials reports whether the frame shows a selected credential.
func (s Screen) HasCredentials() bool {
	return !s.Locked && s.Total > 0
}
