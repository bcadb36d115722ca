package markov

import (
	"bufio"
	"io"
	"strings"
)

// defaultMaxLineSize is the longest line the default tokenizer accepts.
const defaultMaxLineSize = 1024 * 1024

// DefaultTokenizer is a default implementation of the Tokenizer interface.
// It splits every line of the input on whitespace and emits a Newline token
// after the words of each line.
// Its behavior can be customized with functional options.
type DefaultTokenizer struct {
	maxLineSize int
	newlines    bool
}

// TokenizerOption Is a function that configures a DefaultTokenizer.
type TokenizerOption func(*DefaultTokenizer)

// WithMaxLineSize Sets the longest line, in bytes, the tokenizer can read.
// Default: 1 MiB
func WithMaxLineSize(n int) TokenizerOption {
	return func(t *DefaultTokenizer) {
		t.maxLineSize = n
	}
}

// WithNewlines Sets whether a Newline token is emitted at the end of each line.
// Default: true
func WithNewlines(keep bool) TokenizerOption {
	return func(t *DefaultTokenizer) {
		t.newlines = keep
	}
}

// NewDefaultTokenizer creates a new tokenizer with default settings, which can be
// overridden by providing one or more TokenizerOption functions.
func NewDefaultTokenizer(opts ...TokenizerOption) *DefaultTokenizer {
	t := &DefaultTokenizer{
		maxLineSize: defaultMaxLineSize,
		newlines:    true,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// NewStream Returns the stream processor.
func (t *DefaultTokenizer) NewStream(r io.Reader) StreamTokenizer {
	scanner := bufio.NewScanner(r)
	// The scanner treats the buffer capacity as a lower bound on the limit.
	scanner.Buffer(make([]byte, 0, min(bufio.MaxScanTokenSize, t.maxLineSize)), t.maxLineSize)
	return &DefaultStreamTokenizer{
		scanner:  scanner,
		buffer:   []string{},
		newlines: t.newlines,
	}
}

// DefaultStreamTokenizer is the default implementation of the StreamTokenizer interface.
// It uses a bufio.Scanner to read the stream line by line.
type DefaultStreamTokenizer struct {
	scanner  *bufio.Scanner
	buffer   []string
	newlines bool
}

// Next returns the next token from the stream. It returns the token and a nil error on
// success. When the stream is exhausted, it returns an empty string and io.EOF.
// Any other error indicates a problem reading from the underlying stream.
func (s *DefaultStreamTokenizer) Next() (string, error) {
	for len(s.buffer) == 0 { // Loop until we have tokens
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		s.buffer = strings.Fields(s.scanner.Text())
		if s.newlines {
			s.buffer = append(s.buffer, Newline)
		}
	}

	word := s.buffer[0]
	s.buffer = s.buffer[1:] // Consume the token
	return word, nil
}
