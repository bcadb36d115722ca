// Package corpus loads training text from files into markov tokens.
package corpus

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/CTAG07/wordchain/pkg/markov"
)

// ErrUnknownEncoding is returned when an encoding name cannot be resolved.
var ErrUnknownEncoding = errors.New("corpus: unknown encoding")

// Load reads the file at path, decoding it from the named encoding, and
// returns its tokens. An empty encoding reads the file as UTF-8. Encoding
// names are the WHATWG labels, e.g. "latin1", "windows-1252" or "shift_jis".
func Load(path, encoding string, tokenizer markov.Tokenizer) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open corpus: %w", err)
	}
	defer func(file *os.File) {
		_ = file.Close()
	}(file)

	return Read(file, encoding, tokenizer)
}

// Read tokenizes r after decoding it from the named encoding.
func Read(r io.Reader, encoding string, tokenizer markov.Tokenizer) ([]string, error) {
	decoded, err := Decode(r, encoding)
	if err != nil {
		return nil, err
	}
	tokens, err := markov.ReadTokens(tokenizer, decoded)
	if err != nil {
		return nil, fmt.Errorf("could not read corpus: %w", err)
	}
	return tokens, nil
}

// Decode wraps r so that it yields UTF-8 text. An empty name returns r as is.
func Decode(r io.Reader, name string) (io.Reader, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return r, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownEncoding, name)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}
