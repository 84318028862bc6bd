// Package patch edits page objects and test sources in place: selector
// replacement, method injection and new test files. Every write goes through a
// temp file and an atomic rename.
package patch

// Outcome is the result of a file mutation. The zero value means no mutation
// was attempted.
type Outcome int

const (
	None Outcome = iota
	Applied
	Injected
	FileNotFound
	ReadFailed
	SelectorNotFound
	WriteFailed
	MalformedTarget
	NoOpAlreadyExists
	NoOpEmpty
)

var outcomeNames = map[Outcome]string{
	None:              "none",
	Applied:           "applied",
	Injected:          "injected",
	FileNotFound:      "file not found",
	ReadFailed:        "read failed",
	SelectorNotFound:  "selector not found",
	WriteFailed:       "write failed",
	MalformedTarget:   "malformed target",
	NoOpAlreadyExists: "already exists",
	NoOpEmpty:         "nothing to inject",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Changed reports whether the file on disk was rewritten.
func (o Outcome) Changed() bool {
	return o == Applied || o == Injected
}
