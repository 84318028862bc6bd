package ai

import (
	"encoding/json"
	"fmt"

	"github.com/v0xg/testforge/internal/crawler"
)

// MaxMarkupChars bounds how much page markup goes into a heal prompt.
const MaxMarkupChars = 15000

// maxPromptElements caps the scanned element list embedded in a test prompt.
const maxPromptElements = 50

// ExistingMarker is the reply the model gives when the page object already
// has the requested capability.
const ExistingMarker = "EXISTING"

const healPrompt = `You are a Self-Healing QA Robot.

Problem:
The test failed because it could not find this selector: "%s"

Here is the HTML of the page right now:
` + "```html" + `
%s
` + "```" + `

TASK:
Find the NEW, CORRECT selector for the element that corresponds to "%s".
Look for similar ID, class, or text.

OUTPUT:
Return ONLY the new selector string. (e.g. "#new-id" or "text=Add to Cart").`

const pageMethodPrompt = `You are a Senior QA Architect. Existing Code:
` + "```typescript" + `
%s
` + "```" + `
User Goal: '%s'.
Return ONLY the new method code (async) if missing. If exists, return ` + ExistingMarker + `.`

const testPrompt = `Write Playwright test for '%s' on '%s'. Import %s. Use POM. Output ONLY code.`

const elementsSection = `

Interactive elements found on the page (prefer these selectors):
%s`

// TruncateMarkup keeps the first MaxMarkupChars characters of markup.
func TruncateMarkup(markup string) string {
	if len(markup) <= MaxMarkupChars {
		return markup
	}
	n := 0
	for i := range markup {
		if n == MaxMarkupChars {
			return markup[:i]
		}
		n++
	}
	return markup
}

// BuildHealPrompt asks for a replacement for a selector that no longer matches.
func BuildHealPrompt(oldSelector, markup string) string {
	return fmt.Sprintf(healPrompt, oldSelector, TruncateMarkup(markup), oldSelector)
}

// BuildPageMethodPrompt asks for one new page-object method, or the
// ExistingMarker when currentCode already covers goal.
func BuildPageMethodPrompt(goal, currentCode string) string {
	return fmt.Sprintf(pageMethodPrompt, currentCode, goal)
}

// TestRequest carries the inputs of a test-generation prompt.
type TestRequest struct {
	Goal       string
	URL        string
	PageObject string            // class imported by the generated test
	Elements   []crawler.Element // optional, from a page scan
}

// BuildTestPrompt asks for a complete test script that uses the page object.
func BuildTestPrompt(req TestRequest) string {
	prompt := fmt.Sprintf(testPrompt, req.Goal, req.URL, req.PageObject)
	if len(req.Elements) == 0 {
		return prompt
	}

	elements := req.Elements
	if len(elements) > maxPromptElements {
		elements = elements[:maxPromptElements]
	}
	data, err := json.Marshal(elements)
	if err != nil {
		return prompt
	}
	return prompt + fmt.Sprintf(elementsSection, data)
}
