package crawler

// Snapshot is what a capture brings back from a live page.
type Snapshot struct {
	URL      string    `json:"url"`
	Title    string    `json:"title"`
	HTML     string    `json:"-"`
	Elements []Element `json:"elements"`
}

// Element represents an interactive element on the page
type Element struct {
	Selector    string `json:"selector"`
	Type        string `json:"type"` // button, input, link, select, checkbox, radio
	Text        string `json:"text,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Name        string `json:"name,omitempty"`
	ID          string `json:"id,omitempty"`
}
