package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	t.Run("blank lines advance numbering but yield no item", func(t *testing.T) {
		input := "a red fox\n\na blue whale\n   \na green hill\n"

		items, err := Read(strings.NewReader(input))
		require.NoError(t, err)

		require.Len(t, items, 3)
		assert.Equal(t, Item{Line: 1, Text: "a red fox"}, items[0])
		assert.Equal(t, Item{Line: 3, Text: "a blue whale"}, items[1])
		assert.Equal(t, Item{Line: 5, Text: "a green hill"}, items[2])
	})

	t.Run("first CSV field is the prompt", func(t *testing.T) {
		input := "a castle on a hill,extra,columns\n\"a dragon, sleeping\",notes\n"

		items, err := Read(strings.NewReader(input))
		require.NoError(t, err)

		require.Len(t, items, 2)
		assert.Equal(t, "a castle on a hill", items[0].Text)
		assert.Equal(t, "a dragon, sleeping", items[1].Text)
	})

	t.Run("malformed CSV falls back to the raw line", func(t *testing.T) {
		input := "an \"unbalanced quote prompt\n"

		items, err := Read(strings.NewReader(input))
		require.NoError(t, err)

		require.Len(t, items, 1)
		assert.Equal(t, 1, items[0].Line)
		assert.NotEmpty(t, items[0].Text)
	})

	t.Run("surrounding whitespace is trimmed", func(t *testing.T) {
		items, err := Read(strings.NewReader("  spaced out prompt  \n"))
		require.NoError(t, err)

		require.Len(t, items, 1)
		assert.Equal(t, "spaced out prompt", items[0].Text)
	})

	t.Run("empty input yields no items", func(t *testing.T) {
		items, err := Read(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestReadFile(t *testing.T) {
	t.Run("reads an existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "input.csv")
		require.NoError(t, os.WriteFile(path, []byte("one\n\ntwo\n"), 0o644))

		items, err := ReadFile(path)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, 3, items[1].Line)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := ReadFile(filepath.Join(t.TempDir(), "absent.csv"))
		require.Error(t, err)
	})
}
