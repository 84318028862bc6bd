package patch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// noTempFiles fails if a writer left its temp file behind.
func noTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}

func TestApplyFix(t *testing.T) {
	t.Run("replaces every occurrence", func(t *testing.T) {
		path := writeTemp(t, "login.spec.ts", "a #foo b #foo c")

		outcome, err := ApplyFix(path, "#foo", "#bar")
		require.NoError(t, err)
		assert.Equal(t, Applied, outcome)
		assert.Equal(t, "a #bar b #bar c", readString(t, path))
		noTempFiles(t, filepath.Dir(path))
	})

	t.Run("absent selector leaves bytes unchanged", func(t *testing.T) {
		original := "await page.click('#login-button');\n"
		path := writeTemp(t, "login.spec.ts", original)
		before, err := os.Stat(path)
		require.NoError(t, err)

		outcome, err := ApplyFix(path, "#missing", "#bar")
		require.NoError(t, err)
		assert.Equal(t, SelectorNotFound, outcome)
		assert.Equal(t, original, readString(t, path))

		after, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, before.ModTime(), after.ModTime())
	})

	t.Run("empty selector never matches", func(t *testing.T) {
		path := writeTemp(t, "x.ts", "content")
		outcome, err := ApplyFix(path, "", "#bar")
		require.NoError(t, err)
		assert.Equal(t, SelectorNotFound, outcome)
		assert.Equal(t, "content", readString(t, path))
	})

	t.Run("missing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nope.ts")
		outcome, err := ApplyFix(path, "#a", "#b")
		require.NoError(t, err)
		assert.Equal(t, FileNotFound, outcome)
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr), "no file may be created")
	})

	t.Run("keeps file mode", func(t *testing.T) {
		path := writeTemp(t, "x.ts", "#a")
		require.NoError(t, os.Chmod(path, 0600))

		_, err := ApplyFix(path, "#a", "#b")
		require.NoError(t, err)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})
}

func TestInjectMethod(t *testing.T) {
	t.Run("splices before the final brace", func(t *testing.T) {
		original := "class X {\n  foo() {}\n}"
		path := writeTemp(t, "X.ts", original)

		outcome, err := InjectMethod(path, "bar() {}")
		require.NoError(t, err)
		assert.Equal(t, Injected, outcome)

		got := readString(t, path)
		want := "class X {\n  foo() {}\n\n\n  bar() {}\n}"
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("injected content mismatch (-want +got):\n%s", diff)
		}

		barAt := strings.Index(got, "bar() {}")
		assert.Less(t, barAt, strings.LastIndex(got, "}"))
		assert.Equal(t, original, strings.Replace(got, "\n\n  bar() {}\n", "", 1))
		noTempFiles(t, filepath.Dir(path))
	})

	t.Run("sanitizes fenced replies", func(t *testing.T) {
		path := writeTemp(t, "X.ts", "class X {\n}")

		outcome, err := InjectMethod(path, "```typescript\nasync logout() {}\n```\n")
		require.NoError(t, err)
		assert.Equal(t, Injected, outcome)
		assert.Equal(t, "class X {\n\n\n  async logout() {}\n}", readString(t, path))
	})

	t.Run("marker is a no-op", func(t *testing.T) {
		original := "class X {\n}"
		path := writeTemp(t, "X.ts", original)

		outcome, err := InjectMethod(path, "  EXISTING  ")
		require.NoError(t, err)
		assert.Equal(t, NoOpAlreadyExists, outcome)
		assert.Equal(t, original, readString(t, path))
	})

	t.Run("empty reply is a no-op", func(t *testing.T) {
		path := writeTemp(t, "X.ts", "class X {\n}")
		outcome, err := InjectMethod(path, "```\n```")
		require.NoError(t, err)
		assert.Equal(t, NoOpEmpty, outcome)
	})

	t.Run("no closing brace is malformed", func(t *testing.T) {
		original := "export const x = 1;\n"
		path := writeTemp(t, "X.ts", original)

		outcome, err := InjectMethod(path, "bar() {}")
		require.NoError(t, err)
		assert.Equal(t, MalformedTarget, outcome)
		assert.Equal(t, original, readString(t, path))
	})

	t.Run("missing file", func(t *testing.T) {
		outcome, err := InjectMethod(filepath.Join(t.TempDir(), "none.ts"), "bar() {}")
		require.NoError(t, err)
		assert.Equal(t, FileNotFound, outcome)
	})
}

func TestWriteNewFile(t *testing.T) {
	t.Run("creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tests", "nested", "login.spec.ts")
		require.NoError(t, WriteNewFile(path, []byte("test()")))
		assert.Equal(t, "test()", readString(t, path))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
		noTempFiles(t, filepath.Dir(path))
	})

	t.Run("does not clobber an existing file", func(t *testing.T) {
		path := writeTemp(t, "a.spec.ts", "theirs")
		err := WriteNewFile(path, []byte("ours"))
		assert.ErrorIs(t, err, ErrConcurrentModification)
		assert.Equal(t, "theirs", readString(t, path))
		noTempFiles(t, filepath.Dir(path))
	})
}

func TestWriteNewFile_RaceWithCreator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logout.spec.ts")

	st, err := statFile(path)
	require.NoError(t, err)
	require.False(t, st.exists)

	// Another run creates the file after our existence check.
	require.NoError(t, os.WriteFile(path, []byte("theirs"), 0644))

	err = writeChecked(path, []byte("ours"), st)
	assert.ErrorIs(t, err, ErrConcurrentModification)
	assert.Equal(t, "theirs", readString(t, path))
	noTempFiles(t, filepath.Dir(path))
}

func TestWriteChecked_ConcurrentModification(t *testing.T) {
	path := writeTemp(t, "Page.ts", "class P {\n}")

	_, st, err := readFile(path)
	require.NoError(t, err)

	// Another run rewrites the file after our read.
	require.NoError(t, os.WriteFile(path, []byte("class P {\n  other() {}\n}"), 0644))
	later := st.modTime.Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))

	err = writeChecked(path, []byte("ours"), st)
	assert.ErrorIs(t, err, ErrConcurrentModification)
	assert.Equal(t, "class P {\n  other() {}\n}", readString(t, path))
	noTempFiles(t, filepath.Dir(path))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "selector not found", SelectorNotFound.String())
	assert.Equal(t, "unknown", Outcome(99).String())
	assert.True(t, Applied.Changed())
	assert.True(t, Injected.Changed())
	assert.False(t, MalformedTarget.Changed())
}
