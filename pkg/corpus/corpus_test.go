package corpus

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CTAG07/wordchain/pkg/markov"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte("Hello world.\n\n\nHello there.\n"), 0o644))

	tokens, err := Load(path, "", markov.NewDefaultTokenizer())
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", "world.", "\n", "Hello", "there.", "\n"}, tokens)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"), "", markov.NewDefaultTokenizer())
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestReadLatin1(t *testing.T) {
	// "Très café" encoded as ISO-8859-1.
	latin1 := []byte{'T', 'r', 0xe8, 's', ' ', 'c', 'a', 'f', 0xe9, '\n'}

	tokens, err := Read(bytes.NewReader(latin1), "latin1", markov.NewDefaultTokenizer())
	require.NoError(t, err)
	assert.Equal(t, []string{"Très", "café", "\n"}, tokens)
}

func TestReadUnknownEncoding(t *testing.T) {
	_, err := Read(strings.NewReader("text"), "no-such-encoding", markov.NewDefaultTokenizer())
	assert.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestDecodeEmptyName(t *testing.T) {
	r := strings.NewReader("plain")
	decoded, err := Decode(r, "  ")
	require.NoError(t, err)
	assert.Same(t, r, decoded)
}
