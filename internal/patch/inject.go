package patch

import (
	"errors"
	"os"
	"strings"

	"github.com/v0xg/testforge/internal/ai"
)

// InjectMethod splices methodText into the page object at path, just before
// its last closing brace. A reply carrying ai.ExistingMarker is a no-op.
func InjectMethod(path, methodText string) (Outcome, error) {
	data, st, err := readFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return FileNotFound, nil
	}
	if err != nil {
		return ReadFailed, err
	}

	method := ai.Sanitize(methodText)
	if strings.Contains(method, ai.ExistingMarker) {
		return NoOpAlreadyExists, nil
	}
	if method == "" {
		return NoOpEmpty, nil
	}

	content := string(data)
	idx := strings.LastIndex(content, "}")
	if idx < 0 {
		return MalformedTarget, nil
	}

	updated := content[:idx] + "\n\n  " + method + "\n" + content[idx:]
	if err := writeChecked(path, []byte(updated), st); err != nil {
		return WriteFailed, err
	}
	return Injected, nil
}
