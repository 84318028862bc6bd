package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"fenced", "```typescript\nasync logout() {}\n```", "async logout() {}"},
		{"bare fence", "```\n#login-button\n```", "#login-button"},
		{"surrounding space", "  \n #new-id \t\n", "#new-id"},
		{"fences mid text", "here:\n```typescript\nx()\n```\ndone", "here:\n\nx()\n\ndone"},
		{"clean", "text=Add to Cart", "text=Add to Cart"},
		{"empty", "", ""},
		{"only fences", "``````typescript", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.raw))
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"```typescript\ncode\n```",
		"`````",
		"``` ```typescript ``",
		"````typescript````",
		"  ``x``  ",
		"a```b```c",
		"\n```typescript```typescript```\n",
		"EXISTING",
		"",
	}

	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "input %q", in)
	}
}

func TestSanitizeSelector(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		want       string
		singleLine bool
	}{
		{"plain", " #new-id \n", "#new-id", true},
		{"typescript fence", "```typescript\n#new-id\n```", "#new-id", true},
		{"css fence", "```css\n#new\n```", "#new", true},
		{"inline fence", "```#new```", "#new", true},
		{"text matcher", "text=Add to Cart", "text=Add to Cart", true},
		{"explanation", "The new selector is:\n#new", "The new selector is:\n#new", false},
		{"empty", "```css\n```", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, single := SanitizeSelector(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.singleLine, single)
		})
	}
}
