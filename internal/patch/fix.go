package patch

import (
	"errors"
	"os"
	"strings"
)

// ApplyFix replaces every occurrence of oldSelector in the file at path with
// newSelector. The file is left untouched unless the outcome is Applied.
func ApplyFix(path, oldSelector, newSelector string) (Outcome, error) {
	data, st, err := readFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return FileNotFound, nil
	}
	if err != nil {
		return ReadFailed, err
	}

	content := string(data)
	if oldSelector == "" || !strings.Contains(content, oldSelector) {
		return SelectorNotFound, nil
	}

	updated := strings.ReplaceAll(content, oldSelector, newSelector)
	if err := writeChecked(path, []byte(updated), st); err != nil {
		return WriteFailed, err
	}
	return Applied, nil
}
