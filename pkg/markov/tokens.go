package markov

import (
	"errors"
	"fmt"
	"io"
)

// Newline is the token emitted for every line break in the input. It is
// written back literally when a text is generated.
const Newline = "\n"

// Token represents a single follower recorded in a Chain. It contains the
// text itself and a boolean flag indicating if it marks the end of the chain,
// in which case Text is empty.
type Token struct {
	Text string
	EOC  bool
}

// Tokenizer is an interface that defines the contract for splitting input text
// into tokens. This allows the chain building logic to be independent of the
// specific tokenization strategy.
type Tokenizer interface {
	// NewStream returns a stateful StreamTokenizer for processing an io.Reader.
	NewStream(io.Reader) StreamTokenizer
}

// StreamTokenizer is an interface for a stateful tokenizer that processes a
// stream of data, returning one token at a time.
type StreamTokenizer interface {
	// Next returns the next token from the stream. It returns io.EOF as the
	// error when the stream is fully consumed.
	Next() (string, error)
}

// ReadTokens drains r through tokenizer and returns every token, with runs of
// consecutive Newline tokens collapsed into one.
func ReadTokens(tokenizer Tokenizer, r io.Reader) ([]string, error) {
	stream := tokenizer.NewStream(r)

	var tokens []string
	for {
		token, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("tokenizer error: %w", err)
		}
		tokens = append(tokens, token)
	}
	return CollapseNewlines(tokens), nil
}

// CollapseNewlines removes every Newline token that directly follows another
// Newline token. Other adjacent duplicates are kept. The input slice is
// reused for the result.
func CollapseNewlines(tokens []string) []string {
	out := tokens[:0]
	for _, token := range tokens {
		if token == Newline && len(out) > 0 && out[len(out)-1] == Newline {
			continue
		}
		out = append(out, token)
	}
	return out
}
