// Package corpus loads words from text for exercising and profiling
// versioned collections.
package corpus

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// FirstKey is the key Pairs chains the first word from.
const FirstKey = "firstKey"

// WordSource yields words one at a time, returning io.EOF after the last.
type WordSource interface {
	Next(ctx context.Context) (string, error)
}

// Pair is a key and the word that followed it.
type Pair struct {
	Key   string
	Value string
}

var nonWord = regexp.MustCompile(`\W`)

// CleanWord removes every character that is not a letter, digit or
// underscore.
func CleanWord(word string) string {
	return nonWord.ReplaceAllString(word, "")
}

// Scanner is a WordSource over text: lines are split on spaces and each
// piece cleaned, skipping pieces that clean to nothing.
type Scanner struct {
	r       io.Reader
	lines   *bufio.Scanner
	pending []string
	done    bool
}

// NewScanner returns a Scanner reading r. If r is also an io.Closer, it
// is closed once the words run out or reading fails.
func NewScanner(r io.Reader) *Scanner {
	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Scanner{r: r, lines: lines}
}

// OpenFile returns a Scanner over the named file.
func OpenFile(path string) (*Scanner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}
	return NewScanner(f), nil
}

func (s *Scanner) Next(ctx context.Context) (string, error) {
	for len(s.pending) == 0 {
		if s.done {
			return "", io.EOF
		}
		if err := ctx.Err(); err != nil {
			s.close()
			return "", err
		}
		if !s.lines.Scan() {
			s.close()
			if err := s.lines.Err(); err != nil {
				return "", fmt.Errorf("corpus: %w", err)
			}
			return "", io.EOF
		}
		for _, piece := range strings.Split(s.lines.Text(), " ") {
			if word := CleanWord(piece); word != "" {
				s.pending = append(s.pending, word)
			}
		}
	}
	word := s.pending[0]
	s.pending = s.pending[1:]
	return word, nil
}

func (s *Scanner) close() {
	s.done = true
	if c, ok := s.r.(io.Closer); ok {
		c.Close()
	}
}

// Words drains src.
func Words(ctx context.Context, src WordSource) ([]string, error) {
	var words []string
	for {
		word, err := src.Next(ctx)
		if err == io.EOF {
			return words, nil
		}
		if err != nil {
			return nil, err
		}
		words = append(words, word)
	}
}

// UniqueWords returns words without repeats, in order of first
// appearance.
func UniqueWords(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	var unique []string
	for _, word := range words {
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		unique = append(unique, word)
	}
	return unique
}

// Pairs maps every word to the word that follows it, starting from
// FirstKey mapped to the first word. A word that occurs more than once
// keeps its last successor. Pairs are in order of first appearance of
// their keys.
func Pairs(words []string) []Pair {
	index := make(map[string]int, len(words))
	var pairs []Pair
	prev := FirstKey
	for _, word := range words {
		if i, ok := index[prev]; ok {
			pairs[i].Value = word
		} else {
			index[prev] = len(pairs)
			pairs = append(pairs, Pair{prev, word})
		}
		prev = word
	}
	return pairs
}
