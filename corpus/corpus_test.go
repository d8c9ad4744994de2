package corpus

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alice = `Alice was beginning to get very tired of sitting by her sister
on the bank, and of having nothing to do: once or twice she had peeped
into the book her sister was reading -- "and what is the use of a book,"`

func TestCleanWord(t *testing.T) {
	assert.Equal(t, "bank", CleanWord("bank,"))
	assert.Equal(t, "and", CleanWord(`"and`))
	assert.Equal(t, "", CleanWord("--"))
	assert.Equal(t, "snake_case9", CleanWord("snake_case9!"))
	assert.Equal(t, "dont", CleanWord("don't"))
}

func TestScannerWords(t *testing.T) {
	words, err := Words(context.Background(), NewScanner(strings.NewReader(alice)))
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "was", "beginning", "to", "get"}, words[:5])
	assert.NotContains(t, words, "")
	assert.NotContains(t, words, "--")
	assert.Equal(t, "book", words[len(words)-1])
	assert.Len(t, words, 42)
}

func TestScannerEOFIsSticky(t *testing.T) {
	ctx := context.Background()
	s := NewScanner(strings.NewReader("one"))
	word, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one", word)
	_, err = s.Next(ctx)
	assert.Equal(t, io.EOF, err)
	_, err = s.Next(ctx)
	assert.Equal(t, io.EOF, err)
}

type closeRecorder struct {
	io.Reader
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestScannerClosesReader(t *testing.T) {
	r := &closeRecorder{Reader: strings.NewReader("a b c")}
	words, err := Words(context.Background(), NewScanner(r))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, words)
	assert.True(t, r.closed)
}

func TestScannerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewScanner(strings.NewReader(alice)).Next(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, []byte(alice), 0o644))
	s, err := OpenFile(path)
	require.NoError(t, err)
	words, err := Words(context.Background(), s)
	require.NoError(t, err)
	assert.Len(t, words, 42)

	_, err = OpenFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestUniqueWords(t *testing.T) {
	assert.Equal(t,
		[]string{"to", "be", "or", "not"},
		UniqueWords([]string{"to", "be", "or", "not", "to", "be"}))
	assert.Empty(t, UniqueWords(nil))
}

func TestPairs(t *testing.T) {
	pairs := Pairs([]string{"to", "be", "or", "not", "to", "go"})
	assert.Equal(t, []Pair{
		{FirstKey, "to"},
		{"to", "go"},
		{"be", "or"},
		{"or", "not"},
		{"not", "to"},
	}, pairs)
	assert.Empty(t, Pairs(nil))
}
